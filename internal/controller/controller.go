// Package controller orchestrates the full protocol flow: key pair, token
// exchange, session establishment and framed, encrypted messaging through a
// fusion node.
package controller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"fuselink/internal/domain"
	"fuselink/internal/keystore"
	"fuselink/internal/protocol/session"
	"fuselink/internal/routing"
	"fuselink/internal/token"
	"fuselink/internal/wire"
)

var (
	// ErrNoRelayAddress means no fusion node has assigned an address yet,
	// so a token cannot be issued.
	ErrNoRelayAddress = errors.New("controller: no relay address known")

	// ErrNoTransport means the controller was built without a transport.
	ErrNoTransport = errors.New("controller: no transport attached")

	// ErrUnknownSession means Send referenced a session the engine does
	// not hold.
	ErrUnknownSession = errors.New("controller: unknown session")

	// ErrSendFailed means the transport rejected the chunk.
	ErrSendFailed = errors.New("controller: transport send failed")
)

// Stats counts inbound-path outcomes. Authentication failures are counted
// rather than swallowed: a nonzero AuthFailed may indicate tampering.
type Stats struct {
	Delivered      uint64
	DroppedForeign uint64
	Malformed      uint64
	NoRoute        uint64
	AuthFailed     uint64
}

// Config carries the controller's identity and optional static wiring.
type Config struct {
	// LocalID is the destination identity frames addressed to this device
	// carry.
	LocalID domain.DestinationID

	// StaticNode seeds the relay address for deployments that know it up
	// front; a transport status update overrides it.
	StaticNode domain.RelayAddress
}

// Controller owns one device's protocol state. No ambient globals: all
// session, key and routing state lives on the instance.
type Controller struct {
	log     zerolog.Logger
	cfg     Config
	keys    *keystore.Store
	engine  *session.Engine
	routes  *routing.Table
	tr      domain.Transport

	mu   sync.RWMutex
	node domain.RelayAddress

	inbound  chan []byte
	delivery chan domain.Message
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once

	delivered      atomic.Uint64
	droppedForeign atomic.Uint64
	malformed      atomic.Uint64
	noRoute        atomic.Uint64
	authFailed     atomic.Uint64
}

// New wires a controller. tr may be nil for offline use (key and token
// management only); then Send and the receive path are unavailable.
func New(
	cfg Config,
	keys *keystore.Store,
	engine *session.Engine,
	routes *routing.Table,
	tr domain.Transport,
	log zerolog.Logger,
) *Controller {
	c := &Controller{
		log:      log,
		cfg:      cfg,
		keys:     keys,
		engine:   engine,
		routes:   routes,
		tr:       tr,
		node:     cfg.StaticNode,
		inbound:  make(chan []byte, 64),
		delivery: make(chan domain.Message, 64),
		done:     make(chan struct{}),
	}
	if tr != nil {
		tr.SetReceiver(c.enqueue)
		c.wg.Add(2)
		go c.statusLoop()
		go c.runLoop()
	}
	return c
}

// Node returns the current local relay address, or "" when unknown.
func (c *Controller) Node() domain.RelayAddress {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.node
}

// IssueToken encodes the out-of-band pairing token for the active key pair
// and the current relay address.
func (c *Controller) IssueToken(now time.Time) ([]byte, error) {
	kp, err := c.keys.Current()
	if err != nil {
		return nil, err
	}
	node := c.Node()
	if node == "" {
		return nil, ErrNoRelayAddress
	}
	return token.Encode(kp.Public, node, now), nil
}

// Pair consumes a scanned token: decode, establish, register the route.
// Re-processing identical token data returns the existing session and does
// not create a duplicate.
func (c *Controller) Pair(ctx context.Context, raw []byte, now time.Time) (domain.Session, error) {
	tok, err := token.Decode(raw, now)
	if err != nil {
		return domain.Session{}, err
	}
	kp, err := c.keys.Current()
	if err != nil {
		return domain.Session{}, err
	}
	sess, err := c.engine.Establish(ctx, kp, tok.PublicKey, tok.Node)
	if err != nil {
		return domain.Session{}, err
	}
	// Route inbound frames addressed to us. Register under our own mailbox
	// address when known; resolution falls back on the destination match
	// after a node reassignment.
	c.routes.Register(c.cfg.LocalID, c.Node(), sess.ID)
	return sess, nil
}

// Send encrypts plaintext for destination and pushes one frame toward the
// session's fusion node.
func (c *Controller) Send(sessID domain.SessionID, dest domain.DestinationID, plaintext []byte) error {
	if c.tr == nil {
		return ErrNoTransport
	}
	sess, _, ok := c.engine.Get(sessID)
	if !ok {
		return ErrUnknownSession
	}
	ct, err := c.engine.Encrypt(sessID, plaintext, dest)
	if err != nil {
		return err
	}
	frame, err := wire.Encode(sess.Node, ct)
	if err != nil {
		return err
	}
	if !c.tr.Send(frame) {
		return ErrSendFailed
	}
	return nil
}

// Messages delivers decrypted inbound messages. Single consumer expected.
func (c *Controller) Messages() <-chan domain.Message { return c.delivery }

// Stats snapshots the inbound counters.
func (c *Controller) Stats() Stats {
	return Stats{
		Delivered:      c.delivered.Load(),
		DroppedForeign: c.droppedForeign.Load(),
		Malformed:      c.malformed.Load(),
		NoRoute:        c.noRoute.Load(),
		AuthFailed:     c.authFailed.Load(),
	}
}

// Reset discards every session, clears routing and regenerates the key
// pair wholesale.
func (c *Controller) Reset(ctx context.Context, passphrase string) error {
	c.engine.DiscardAll()
	c.routes.Clear()
	_, err := c.keys.Generate(ctx, passphrase)
	return err
}

// Close stops the loops and the transport. Idempotent.
func (c *Controller) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		if c.tr != nil {
			err = c.tr.Close()
		}
		c.wg.Wait()
	})
	return err
}

func (c *Controller) enqueue(b []byte) {
	select {
	case c.inbound <- b:
	default:
		c.log.Warn().Int("len", len(b)).Msg("inbound queue full, dropping chunk")
	}
}

func (c *Controller) statusLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case st, ok := <-c.tr.Status():
			if !ok {
				return
			}
			c.log.Debug().Stringer("state", st.State).Str("node", st.Node.String()).Msg("transport status")
			if st.State == domain.StateConnectedWithAddress {
				c.mu.Lock()
				c.node = st.Node
				c.mu.Unlock()
			}
		}
	}
}

func (c *Controller) runLoop() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case b := <-c.inbound:
			c.handleChunk(b)
		}
	}
}

// handleChunk walks one inbound chunk through decode, routing and decrypt.
// No inbound byte sequence is fatal; the worst outcome is a counted drop.
func (c *Controller) handleChunk(b []byte) {
	f, err := wire.Decode(b)
	if err != nil {
		c.malformed.Add(1)
		c.log.Warn().Err(err).Msg("dropping undecodable chunk")
		return
	}
	dest, err := session.PeekDestination(f.Ciphertext)
	if err != nil {
		c.malformed.Add(1)
		c.log.Warn().Err(err).Msg("dropping frame without destination header")
		return
	}
	if dest != c.cfg.LocalID {
		// Other devices' traffic legitimately transits the same node.
		c.droppedForeign.Add(1)
		c.log.Debug().Uint32("destination", uint32(dest)).Msg("frame not for us")
		return
	}
	sessID, err := c.routes.Resolve(dest, f.Node)
	if err != nil {
		c.noRoute.Add(1)
		c.log.Debug().Uint32("destination", uint32(dest)).Msg("no session for frame")
		return
	}
	pt, err := c.engine.Decrypt(sessID, f.Ciphertext)
	if err != nil {
		c.authFailed.Add(1)
		c.log.Error().Err(err).Str("session", sessID.String()).Msg("inbound frame failed decryption")
		return
	}
	msg := domain.Message{SessionID: sessID, Destination: dest, Node: f.Node, Plaintext: pt}
	select {
	case c.delivery <- msg:
		c.delivered.Add(1)
	default:
		c.log.Warn().Str("session", sessID.String()).Msg("delivery queue full, dropping message")
	}
}
