// Package events carries process-wide signals between components.
package events

import "sync"

// ForceLogout asks every session of Identity, or the single session SID,
// to end immediately.
type ForceLogout struct {
	Identity string `json:"identity,omitempty"`
	SID      string `json:"sid,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Bus fans ForceLogout signals out to subscribers.
// Publish delivers synchronously, so once it returns every subscriber has
// handled the signal.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]func(ForceLogout)
	next int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(ForceLogout))}
}

// Subscribe registers fn and returns its cancel func
func (b *Bus) Subscribe(fn func(ForceLogout)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers sig to every subscriber
func (b *Bus) Publish(sig ForceLogout) {
	b.mu.RLock()
	fns := make([]func(ForceLogout), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(sig)
	}
}
