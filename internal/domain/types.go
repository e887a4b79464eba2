package domain

// RelayAddress identifies a fusion node, or a device's mailbox on one. The
// wire format limits it to 255 bytes.
type RelayAddress string

// String returns the string form of the address.
func (a RelayAddress) String() string { return string(a) }

// DestinationID is the numeric identity a frame is addressed to. It travels
// inside the opaque ciphertext blob, so the relay never sees it.
type DestinationID uint32

// SessionID identifies an established session.
type SessionID string

// String returns the string form of the session identifier.
func (id SessionID) String() string { return string(id) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// OutOfBandToken is the short-lived bundle a device publishes through the
// out-of-band channel (a QR code) to bootstrap a session. Immutable once
// decoded.
type OutOfBandToken struct {
	PublicKey      X25519Public
	Node           RelayAddress
	IssuedAtMillis int64
}

// Session is the pair-wise cryptographic context derived once per peer
// relationship. Key is the derived session key; it is serialized only
// toward the sealed store, never in clear to any other sink.
type Session struct {
	ID          SessionID     `json:"id"`
	LocalPublic X25519Public  `json:"local_public"`
	PeerPublic  X25519Public  `json:"peer_public"`
	Node        RelayAddress  `json:"node"`
	Key         []byte        `json:"key"`
	CreatedUTC  int64         `json:"created_utc"`
}

// Message is a decrypted inbound application message delivered by the
// controller.
type Message struct {
	SessionID   SessionID
	Destination DestinationID
	Node        RelayAddress
	Plaintext   []byte
}
