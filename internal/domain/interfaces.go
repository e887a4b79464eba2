package domain

// ConnState is the state of a transport link to a fusion node.
type ConnState int

const (
	StateConnecting ConnState = iota
	StateConnected
	StateConnectedWithAddress
	StateFailed
	StateDisconnected
)

// String returns a human-readable state name.
func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateConnectedWithAddress:
		return "connected-with-address"
	case StateFailed:
		return "failed"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// ConnStatus is a transport status change. Node is set only for
// StateConnectedWithAddress, Reason only for StateFailed.
type ConnStatus struct {
	State  ConnState
	Node   RelayAddress
	Reason string
}

// Transport is the byte channel toward a fusion node. Implementations own
// radio or socket lifecycle; the engine only pushes and receives
// frame-sized chunks.
type Transport interface {
	// Send writes one frame-sized chunk, best effort.
	Send(b []byte) bool

	// SetReceiver installs the callback invoked once per received chunk.
	// Must be called before the first chunk arrives.
	SetReceiver(fn func(b []byte))

	// Status emits connection state changes, including the node-assigned
	// local relay address.
	Status() <-chan ConnStatus

	Close() error
}

// Candidate is a discoverable fusion node.
type Candidate struct {
	Name   string
	Node   RelayAddress
	Signal int
}

// Discovery supplies nearby fusion nodes. The engine consumes only the
// resulting relay address.
type Discovery interface {
	Candidates() []Candidate
	Connect(c Candidate) bool
}

// KeyPairStore persists the device key pair as a sealed blob.
type KeyPairStore interface {
	SaveKeyPair(passphrase string, kp KeyPair) error
	LoadKeyPair(passphrase string) (KeyPair, bool, error)
	DeleteKeyPair() error
}

// SessionStore persists established sessions as sealed blobs.
type SessionStore interface {
	SaveSession(passphrase string, s Session) error
	LoadSessions(passphrase string) ([]Session, error)
	DeleteSessions() error
}
