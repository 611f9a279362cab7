package preview

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	grant     Grant
	expiresAt time.Time
}

// MemoryRegistry is a process-local Registry. Expiry is enforced lazily at
// resolve time; an optional background sweep reclaims entries whose tokens
// are never presented again. State does not survive a process restart.
type MemoryRegistry struct {
	mu      sync.RWMutex
	entries map[string]entry

	now  func() time.Time
	done chan struct{}
}

var _ Registry = (*MemoryRegistry)(nil)

// NewMemoryRegistry creates a MemoryRegistry. If sweepInterval is positive,
// a background goroutine purges expired entries at that interval until Close
// is called.
func NewMemoryRegistry(sweepInterval time.Duration) *MemoryRegistry {
	r := &MemoryRegistry{
		entries: make(map[string]entry),
		now:     time.Now,
		done:    make(chan struct{}),
	}

	if sweepInterval > 0 {
		go r.sweep(sweepInterval)
	}

	return r
}

// Issue stores the grant under a fresh random token valid for ttl.
func (r *MemoryRegistry) Issue(_ context.Context, grant Grant, ttl time.Duration) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.entries[token] = entry{
		grant:     grant,
		expiresAt: r.now().Add(ttl),
	}
	r.mu.Unlock()

	return token, nil
}

// Resolve returns the grant for a live token. An expired entry is purged and
// reported as ErrTokenExpired; any later resolve sees ErrTokenNotFound.
func (r *MemoryRegistry) Resolve(_ context.Context, token string) (*Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[token]
	if !ok {
		return nil, ErrTokenNotFound
	}

	if r.now().After(e.expiresAt) {
		delete(r.entries, token)
		return nil, ErrTokenExpired
	}

	grant := e.grant
	return &grant, nil
}

// Close stops the background sweep.
func (r *MemoryRegistry) Close() {
	close(r.done)
}

func (r *MemoryRegistry) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			now := r.now()
			r.mu.Lock()
			for token, e := range r.entries {
				if now.After(e.expiresAt) {
					delete(r.entries, token)
				}
			}
			r.mu.Unlock()
		}
	}
}
