// Package gate bounds how many operations of one kind may be in flight.
package gate

import (
	"context"
	"errors"
	"sync"
)

// Gate is a counting admission gate with a FIFO waiter queue. Waiters are
// admitted strictly in arrival order; no later caller can be admitted ahead
// of an earlier one.
type Gate struct {
	mu       sync.Mutex
	capacity int
	free     int
	waiters  []chan struct{}
}

// New creates a Gate with the given capacity. Values below 1 are treated
// as 1.
func New(capacity int) *Gate {
	if capacity < 1 {
		capacity = 1
	}
	return &Gate{
		capacity: capacity,
		free:     capacity,
	}
}

// Acquire blocks until a slot is available or ctx is done. A caller whose
// context is cancelled after it was already handed a slot passes the slot
// on, so the free count and waiter queue stay consistent.
func (g *Gate) Acquire(ctx context.Context) error {
	if g == nil {
		return errors.New("gate: nil gate")
	}
	if ctx == nil {
		return errors.New("gate: nil context")
	}

	g.mu.Lock()
	if g.free > 0 {
		g.free--
		g.mu.Unlock()
		return nil
	}

	ready := make(chan struct{})
	g.waiters = append(g.waiters, ready)
	g.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
	}

	g.mu.Lock()
	for i, w := range g.waiters {
		if w == ready {
			g.waiters = append(g.waiters[:i], g.waiters[i+1:]...)
			g.mu.Unlock()
			return ctx.Err()
		}
	}
	g.mu.Unlock()

	// The slot was handed over between ctx.Done and the dequeue attempt.
	g.Release()
	return ctx.Err()
}

// Release returns a slot: the longest-waiting caller is woken if any,
// otherwise capacity is restored. Extra releases beyond the configured
// capacity are absorbed.
func (g *Gate) Release() {
	if g == nil {
		return
	}

	g.mu.Lock()
	if len(g.waiters) > 0 {
		ready := g.waiters[0]
		g.waiters = g.waiters[1:]
		g.mu.Unlock()
		close(ready)
		return
	}
	g.free++
	if g.free > g.capacity {
		g.free = g.capacity
	}
	g.mu.Unlock()
}

// Capacity reports the configured concurrency bound.
func (g *Gate) Capacity() int {
	if g == nil {
		return 0
	}
	return g.capacity
}
