package sessions

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	sess    Session
	expires time.Time
}

type memStore struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]memEntry
}

// NewMemoryStore is the dev fallback used when no REDIS_URL is configured.
// Expired entries are reaped lazily on access.
func NewMemoryStore(ttl time.Duration) Store {
	return &memStore{ttl: ttl, m: map[string]memEntry{}}
}

func (s *memStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	e, ok := s.m[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if time.Now().After(e.expires) {
		s.mu.Lock()
		delete(s.m, id)
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	cp := e.sess
	return &cp, nil
}

func (s *memStore) Put(_ context.Context, sess *Session) error {
	s.mu.Lock()
	s.m[sess.ID] = memEntry{sess: *sess, expires: time.Now().Add(s.ttl)}
	s.mu.Unlock()
	return nil
}

func (s *memStore) Destroy(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.m, id)
	s.mu.Unlock()
	return nil
}
