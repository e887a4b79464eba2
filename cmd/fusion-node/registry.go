package main

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"fuselink/internal/domain"
)

// sink receives forwarded chunks. Satisfied by *client.
type sink interface {
	Forward(chunk []byte) bool
}

// registry maps assigned relay addresses to live connections. Concurrent
// reads on the forwarding path, serialized writes on attach/detach.
type registry struct {
	mu      sync.RWMutex
	clients map[domain.RelayAddress]sink
}

func newRegistry() *registry {
	return &registry{clients: make(map[domain.RelayAddress]sink)}
}

// attach assigns a fresh address to s and registers it.
func (r *registry) attach(s sink) domain.RelayAddress {
	r.mu.Lock()
	defer r.mu.Unlock()
	for {
		addr := randomAddress()
		if _, taken := r.clients[addr]; taken {
			continue
		}
		r.clients[addr] = s
		return addr
	}
}

func (r *registry) detach(addr domain.RelayAddress) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, addr)
}

func (r *registry) lookup(addr domain.RelayAddress) (sink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.clients[addr]
	return s, ok
}

func (r *registry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func randomAddress() domain.RelayAddress {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing here is unrecoverable for the process anyway.
		panic(err)
	}
	return domain.RelayAddress(hex.EncodeToString(b[:]))
}
