package transport

import (
	"sync"

	"fuselink/internal/domain"
)

// PipeEnd is one side of an in-memory transport pair. Chunks sent on one
// end arrive, in order, at the other end's receiver.
type PipeEnd struct {
	peer   *PipeEnd
	status chan domain.ConnStatus
	queue  chan []byte
	done   chan struct{}

	mu        sync.Mutex
	recv      func([]byte)
	closeOnce sync.Once
}

// Pipe returns a connected transport pair. Each end immediately reports
// StateConnectedWithAddress with its given relay address, mirroring what a
// fusion node would assign.
func Pipe(nodeA, nodeB domain.RelayAddress) (*PipeEnd, *PipeEnd) {
	a := newPipeEnd(nodeA)
	b := newPipeEnd(nodeB)
	a.peer, b.peer = b, a
	go a.dispatch()
	go b.dispatch()
	return a, b
}

func newPipeEnd(node domain.RelayAddress) *PipeEnd {
	e := &PipeEnd{
		status: make(chan domain.ConnStatus, 4),
		queue:  make(chan []byte, 64),
		done:   make(chan struct{}),
	}
	e.status <- domain.ConnStatus{State: domain.StateConnected}
	e.status <- domain.ConnStatus{State: domain.StateConnectedWithAddress, Node: node}
	return e
}

// Send queues one chunk for the peer end.
func (e *PipeEnd) Send(b []byte) bool {
	chunk := append([]byte(nil), b...)
	// Check for close first: in a select a closed done channel and a ready
	// queue send are picked at random, which would let a closed end send.
	select {
	case <-e.done:
		return false
	case <-e.peer.done:
		return false
	default:
	}
	select {
	case <-e.done:
		return false
	case <-e.peer.done:
		return false
	case e.peer.queue <- chunk:
		return true
	}
}

// SetReceiver installs the inbound chunk callback.
func (e *PipeEnd) SetReceiver(fn func(b []byte)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recv = fn
}

// Status emits connection state changes.
func (e *PipeEnd) Status() <-chan domain.ConnStatus { return e.status }

// Close stops this end. In-flight chunks are dropped.
func (e *PipeEnd) Close() error {
	e.closeOnce.Do(func() {
		close(e.done)
	})
	return nil
}

// dispatch preserves delivery order with a single consumer per end.
func (e *PipeEnd) dispatch() {
	defer func() {
		e.status <- domain.ConnStatus{State: domain.StateDisconnected}
		close(e.status)
	}()
	for {
		select {
		case <-e.done:
			return
		case chunk := <-e.queue:
			e.mu.Lock()
			fn := e.recv
			e.mu.Unlock()
			if fn != nil {
				fn(chunk)
			}
		}
	}
}

var _ domain.Transport = (*PipeEnd)(nil)
