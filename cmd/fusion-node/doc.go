// Command fusion-node runs the untrusted relay.
//
// The node is a dumb byte forwarder. For every accepted connection it
// assigns a short relay address and announces it with an empty-ciphertext
// frame; afterwards it parses nothing but the 1-byte address prefix of each
// inbound frame and forwards the chunk to the connection holding that
// address. Message content never becomes visible here by construction.
package main
