// Package transport carries relay frames between a device and a fusion
// node.
//
// The relay frame format has no total-length field, so stream transports
// add an outer uint16 big-endian length prefix per chunk. A chunk whose
// decoded frame has an empty ciphertext is a control message from the node:
// it announces the relay address assigned to this connection, surfaced as
// StateConnectedWithAddress.
//
// Bluetooth and WiFi adapters live outside this module; TCP here is the
// concrete collaborator the two shipped binaries interoperate over, and
// Pipe wires two devices together in memory for tests.
package transport
