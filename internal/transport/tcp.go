package transport

import (
	"encoding/binary"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"fuselink/internal/domain"
	"fuselink/internal/wire"
)

// MaxChunk is the largest chunk the outer length prefix can carry.
const MaxChunk = 1<<16 - 1

const dialTimeout = 5 * time.Second

// TCP is a Transport over a single TCP connection to a fusion node.
type TCP struct {
	log    zerolog.Logger
	conn   net.Conn
	status chan domain.ConnStatus

	mu   sync.Mutex
	recv func([]byte)

	wmu       sync.Mutex
	closeOnce sync.Once
}

// DialTCP connects to a fusion node. The returned transport starts reading
// immediately; install the receiver before frames are expected.
func DialTCP(addr string, log zerolog.Logger) (*TCP, error) {
	t := &TCP{
		log:    log,
		status: make(chan domain.ConnStatus, 16),
	}
	t.emit(domain.ConnStatus{State: domain.StateConnecting})

	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		t.emit(domain.ConnStatus{State: domain.StateFailed, Reason: err.Error()})
		close(t.status)
		return nil, err
	}
	t.conn = conn
	t.emit(domain.ConnStatus{State: domain.StateConnected})

	go t.readLoop()
	return t, nil
}

// Send writes one chunk, best effort.
func (t *TCP) Send(b []byte) bool {
	if len(b) > MaxChunk {
		return false
	}
	t.wmu.Lock()
	defer t.wmu.Unlock()

	var hdr [2]byte
	binary.BigEndian.PutUint16(hdr[:], uint16(len(b)))
	if _, err := t.conn.Write(hdr[:]); err != nil {
		return false
	}
	_, err := t.conn.Write(b)
	return err == nil
}

// SetReceiver installs the inbound chunk callback.
func (t *TCP) SetReceiver(fn func(b []byte)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recv = fn
}

// Status emits connection state changes. The channel closes when the
// connection ends.
func (t *TCP) Status() <-chan domain.ConnStatus { return t.status }

// Close tears the connection down.
func (t *TCP) Close() error {
	var err error
	t.closeOnce.Do(func() {
		err = t.conn.Close()
	})
	return err
}

func (t *TCP) readLoop() {
	defer func() {
		t.emit(domain.ConnStatus{State: domain.StateDisconnected})
		close(t.status)
	}()
	for {
		var hdr [2]byte
		if _, err := io.ReadFull(t.conn, hdr[:]); err != nil {
			return
		}
		n := binary.BigEndian.Uint16(hdr[:])
		chunk := make([]byte, n)
		if _, err := io.ReadFull(t.conn, chunk); err != nil {
			return
		}

		// Empty-ciphertext frames are node control messages assigning our
		// relay address; everything else goes up unparsed.
		if f, err := wire.Decode(chunk); err == nil && len(f.Ciphertext) == 0 && f.Node != "" {
			t.log.Debug().Str("node", f.Node.String()).Msg("relay address assigned")
			t.emit(domain.ConnStatus{State: domain.StateConnectedWithAddress, Node: f.Node})
			continue
		}

		t.mu.Lock()
		fn := t.recv
		t.mu.Unlock()
		if fn != nil {
			fn(chunk)
		}
	}
}

// emit never blocks; a stalled consumer loses intermediate states, not the
// connection.
func (t *TCP) emit(st domain.ConnStatus) {
	select {
	case t.status <- st:
	default:
		t.log.Warn().Stringer("state", st.State).Msg("status channel full, dropping update")
	}
}

var _ domain.Transport = (*TCP)(nil)
