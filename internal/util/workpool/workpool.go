// Package workpool bounds concurrent CPU-heavy work with a weighted
// semaphore.
package workpool

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Pool runs functions with at most n in flight. Callers that cannot acquire
// a slot, or whose context expires mid-run, get the context error back; the
// function itself must check ctx before publishing results it computed after
// the deadline.
type Pool struct {
	sem *semaphore.Weighted
}

// New returns a pool admitting n concurrent tasks. n must be >= 1.
func New(n int64) *Pool {
	if n < 1 {
		n = 1
	}
	return &Pool{sem: semaphore.NewWeighted(n)}
}

// Do runs fn on the pool and waits for it or for ctx, whichever finishes
// first. When ctx wins, the slot is released once fn eventually returns;
// its result is discarded.
func (p *Pool) Do(ctx context.Context, fn func() error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		defer p.sem.Release(1)
		done <- fn()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
