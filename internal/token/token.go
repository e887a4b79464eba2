// Package token encodes and decodes the out-of-band pairing token carried
// in a QR code.
//
// Wire text is three comma-joined, double-quote-delimited key:value pairs
// wrapped in braces:
//
//	{"pk":"<base64 public key>","node":"<relay address>","ts":<millis>}
//
// Decoders ignore unknown keys in any position so future versions can append
// fields. The token is the sole authenticated bootstrap of identity between
// two devices with no prior shared channel; its freshness window bounds the
// replay risk of a captured or photographed code.
package token

import (
	"encoding/json"
	"errors"
	"time"

	"fuselink/internal/crypto"
	"fuselink/internal/domain"
)

// TTL is the validity window measured from the issue timestamp.
const TTL = 10 * time.Minute

var (
	// ErrMalformedToken is returned when a required field is absent or
	// unparsable.
	ErrMalformedToken = errors.New("token: malformed")

	// ErrExpiredToken is returned when the token is outside its validity
	// window, including timestamps from the future (no skew tolerance).
	ErrExpiredToken = errors.New("token: expired")
)

// payload is the wire shape. Field order here fixes the encoded field order.
type payload struct {
	PK   string `json:"pk"`
	Node string `json:"node"`
	TS   int64  `json:"ts"`
}

// Encode produces the token text for the given public key and relay address.
func Encode(pub domain.X25519Public, node domain.RelayAddress, now time.Time) []byte {
	b, _ := json.Marshal(payload{
		PK:   crypto.B64(pub.Slice()),
		Node: node.String(),
		TS:   now.UnixMilli(),
	})
	return b
}

// Decode parses and validates raw token text. It is pure: no side effects,
// the same input and clock always yield the same result.
func Decode(raw []byte, now time.Time) (domain.OutOfBandToken, error) {
	// Pointer fields distinguish "absent" from zero values.
	var aux struct {
		PK   *string `json:"pk"`
		Node *string `json:"node"`
		TS   *int64  `json:"ts"`
	}
	if err := json.Unmarshal(raw, &aux); err != nil {
		return domain.OutOfBandToken{}, ErrMalformedToken
	}
	if aux.PK == nil || aux.Node == nil || aux.TS == nil {
		return domain.OutOfBandToken{}, ErrMalformedToken
	}

	pk, err := crypto.B64Decode(*aux.PK)
	if err != nil || len(pk) != 32 {
		return domain.OutOfBandToken{}, ErrMalformedToken
	}

	nowMillis := now.UnixMilli()
	if *aux.TS > nowMillis {
		return domain.OutOfBandToken{}, ErrExpiredToken
	}
	if nowMillis-*aux.TS > TTL.Milliseconds() {
		return domain.OutOfBandToken{}, ErrExpiredToken
	}

	return domain.OutOfBandToken{
		PublicKey:      domain.MustX25519Public(pk),
		Node:           domain.RelayAddress(*aux.Node),
		IssuedAtMillis: *aux.TS,
	}, nil
}
