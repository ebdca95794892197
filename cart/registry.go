package cart

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go-bookshop/store"
)

// Registry keeps one live Synchronizer per session token for the HTTP server
type Registry struct {
	carts store.CartStore
	opts  []Option
	idle  time.Duration

	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	mu       sync.Mutex
	cart     *Synchronizer
	loaded   bool
	lastUsed time.Time
	// invalid is set without holding mu, so a sweep running inside another
	// session's Load can flag this one
	invalid atomic.Bool
}

// NewRegistry returns a registry whose sessions are dropped after idle
// without use. opts are applied to every Synchronizer it creates.
func NewRegistry(carts store.CartStore, idle time.Duration, opts ...Option) *Registry {
	if idle <= 0 {
		idle = DefaultRetention
	}
	return &Registry{
		carts:   carts,
		opts:    opts,
		idle:    idle,
		entries: make(map[string]*registryEntry),
	}
}

// Get returns the session's Synchronizer, loading it on first use. When the
// load fails the local snapshot is restored and the *LoadError is returned
// together with the usable, stale Synchronizer; the next Get retries the load.
func (r *Registry) Get(ctx context.Context, token string) (*Synchronizer, error) {
	e, err := r.entry(token)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastUsed = time.Now()
	if e.invalid.Swap(false) {
		e.loaded = false
	}
	if e.loaded {
		return e.cart, nil
	}
	if _, err := e.cart.Load(ctx); err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			e.cart.RecoverFromLocalCache()
			return e.cart, err
		}
		return nil, err
	}
	e.loaded = true
	return e.cart, nil
}

func (r *Registry) entry(token string) (*registryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[token]; ok {
		return e, nil
	}
	opts := append(append([]Option{}, r.opts...), withSweepHook(r.Invalidate))
	s, err := New(token, r.carts, opts...)
	if err != nil {
		return nil, err
	}
	e := &registryEntry{cart: s, lastUsed: time.Now()}
	r.entries[token] = e
	return e, nil
}

// Invalidate makes the next Get of token load the cart from the store again.
// Call it when the bound record was deleted or changed by someone else.
func (r *Registry) Invalidate(token string) {
	r.mu.Lock()
	e, ok := r.entries[token]
	r.mu.Unlock()
	if ok {
		e.invalid.Store(true)
	}
}

// Evict drops sessions unused since now minus the idle window. A dropped
// session is loaded again from the store on its next request.
func (r *Registry) Evict(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for token, e := range r.entries {
		if !e.mu.TryLock() {
			continue
		}
		if now.Sub(e.lastUsed) > r.idle {
			delete(r.entries, token)
			evicted++
		}
		e.mu.Unlock()
	}
	return evicted
}

// Len reports the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
