// internal/session/store.go
//
// Session stores: the interface plus the in-memory implementation.
//
// Memory is the default and suits single-process deployments; the janitor
// goroutine sweeps expired records the way the tenant cache's evictor
// does, on a ticker with a Close for tests.  Multi-process deployments
// configure the Redis store instead (redis.go).
package session

import (
	"context"
	"sync"
	"time"
)

// Store persists sessions by ID.  Get must return ErrNoSession for IDs it
// does not hold; expiry enforcement belongs to the manager, except where
// the backend can expire natively (Redis TTL).
type Store interface {
	Put(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// MemoryStore keeps sessions in a map guarded by a RWMutex.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryStore starts the janitor and returns the store.  sweep <= 0
// disables the janitor; Get still refuses expired records either way.
func NewMemoryStore(sweep time.Duration) *MemoryStore {
	st := &MemoryStore{
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}
	if sweep > 0 {
		go st.janitor(sweep)
	}
	return st
}

func (st *MemoryStore) Put(_ context.Context, s *Session) error {
	cp := *s
	st.mu.Lock()
	st.sessions[s.ID] = &cp
	st.mu.Unlock()
	return nil
}

func (st *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok || time.Now().After(s.ExpiresAt) {
		return nil, ErrNoSession
	}
	cp := *s
	return &cp, nil
}

func (st *MemoryStore) Delete(_ context.Context, id string) error {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
	return nil
}

// Close stops the janitor.  Idempotent.
func (st *MemoryStore) Close() error {
	st.stopOnce.Do(func() { close(st.stop) })
	return nil
}

// Len reports live records.  Diagnostics reads it for the session check.
func (st *MemoryStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func (st *MemoryStore) janitor(sweep time.Duration) {
	tick := time.NewTicker(sweep)
	defer tick.Stop()
	for {
		select {
		case <-st.stop:
			return
		case <-tick.C:
			now := time.Now()
			st.mu.Lock()
			for id, s := range st.sessions {
				if now.After(s.ExpiresAt) {
					delete(st.sessions, id)
				}
			}
			st.mu.Unlock()
		}
	}
}
