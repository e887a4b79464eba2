// Package wire implements the relay frame envelope.
//
// Wire format:
//
//	[1B addressLen][addressLen bytes address][remaining bytes ciphertext]
//
// There is no total-length field: the remainder of the transport chunk is
// the ciphertext. The fusion node is an intentionally dumb byte forwarder;
// the address prefix is the only part of a frame it is allowed to parse.
package wire

import (
	"errors"

	"fuselink/internal/domain"
)

// MaxAddressLen is the largest relay address the 1-byte prefix can carry.
const MaxAddressLen = 255

var (
	// ErrAddressTooLong is returned by Encode for addresses over 255 bytes.
	// This is a caller error, not a wire condition.
	ErrAddressTooLong = errors.New("wire: relay address exceeds 255 bytes")

	// ErrTruncatedFrame is returned by Decode when fewer bytes are present
	// than the length prefix promises.
	ErrTruncatedFrame = errors.New("wire: truncated frame")
)

// Frame is a decoded relay envelope. Ciphertext is opaque here; it is
// produced and consumed only by the session engine.
type Frame struct {
	Node       domain.RelayAddress
	Ciphertext []byte
}

// Encode writes the length-prefixed address followed by the raw ciphertext.
func Encode(node domain.RelayAddress, ciphertext []byte) ([]byte, error) {
	addr := []byte(node)
	if len(addr) > MaxAddressLen {
		return nil, ErrAddressTooLong
	}
	out := make([]byte, 0, 1+len(addr)+len(ciphertext))
	out = append(out, byte(len(addr)))
	out = append(out, addr...)
	out = append(out, ciphertext...)
	return out, nil
}

// Decode parses one frame. A zero-length address is structurally valid
// (whether it routes anywhere is a policy question for the routing table),
// and an empty ciphertext tail is a zero-length message.
func Decode(raw []byte) (Frame, error) {
	if len(raw) < 1 {
		return Frame{}, ErrTruncatedFrame
	}
	addrLen := int(raw[0])
	if len(raw) < 1+addrLen {
		return Frame{}, ErrTruncatedFrame
	}
	ct := make([]byte, len(raw)-1-addrLen)
	copy(ct, raw[1+addrLen:])
	return Frame{
		Node:       domain.RelayAddress(raw[1 : 1+addrLen]),
		Ciphertext: ct,
	}, nil
}
