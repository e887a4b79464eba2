// Package routing decides which local session an inbound frame belongs to.
package routing

import (
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"fuselink/internal/domain"
)

// ErrNoMatch means no registered entry covers the destination. Frames for
// foreign destinations legitimately transit the same fusion node, so a miss
// is a drop decision, not a fault.
var ErrNoMatch = errors.New("routing: no matching session")

// Table maps (destinationID, relayAddress) to a session. It holds a
// non-owning lookup only; session material stays with the engine. Reads may
// run concurrently, writes are serialized.
type Table struct {
	log zerolog.Logger

	mu      sync.RWMutex
	entries map[domain.DestinationID]map[domain.RelayAddress]domain.SessionID
}

// NewTable returns an empty table logging through log.
func NewTable(log zerolog.Logger) *Table {
	return &Table{
		log:     log,
		entries: make(map[domain.DestinationID]map[domain.RelayAddress]domain.SessionID),
	}
}

// Register inserts or overwrites a mapping. Last write wins for a given
// (destination, relay address) pair.
func (t *Table) Register(dest domain.DestinationID, node domain.RelayAddress, id domain.SessionID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	byNode, ok := t.entries[dest]
	if !ok {
		byNode = make(map[domain.RelayAddress]domain.SessionID)
		t.entries[dest] = byNode
	}
	byNode[node] = id
}

// Unregister removes a mapping if present.
func (t *Table) Unregister(dest domain.DestinationID, node domain.RelayAddress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	byNode, ok := t.entries[dest]
	if !ok {
		return
	}
	delete(byNode, node)
	if len(byNode) == 0 {
		delete(t.entries, dest)
	}
}

// Resolve finds the session for an inbound frame. The destination must
// match exactly; a relay-address mismatch is informational only, since a
// device survives node reassignment. No wildcard or prefix matching.
func (t *Table) Resolve(dest domain.DestinationID, node domain.RelayAddress) (domain.SessionID, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	byNode, ok := t.entries[dest]
	if !ok {
		return "", ErrNoMatch
	}
	if id, ok := byNode[node]; ok {
		return id, nil
	}
	for cached, id := range byNode {
		t.log.Debug().
			Uint32("destination", uint32(dest)).
			Str("frame_node", node.String()).
			Str("cached_node", cached.String()).
			Msg("relay address mismatch, accepting on destination match")
		return id, nil
	}
	return "", ErrNoMatch
}

// Clear drops every entry. Used on reset.
func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make(map[domain.DestinationID]map[domain.RelayAddress]domain.SessionID)
}

// Len reports the number of registered mappings.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, byNode := range t.entries {
		n += len(byNode)
	}
	return n
}
