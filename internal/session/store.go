package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// DefaultTTL is how long an untouched session survives.
const DefaultTTL = 30 * time.Minute

// ErrNoSession is returned by Store.Get when the user has no live session.
var ErrNoSession = errors.New("no session")

// Store keeps sessions between messages.
type Store interface {
	Get(ctx context.Context, userID int64) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, userID int64) error
}

type memoryEntry struct {
	session   Session
	expiresAt time.Time
}

// MemoryStore is a bounded in-process session store. The least recently
// used sessions are evicted once capacity is reached, and entries older
// than the TTL read as absent.
type MemoryStore struct {
	cache *lru.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryStore creates a MemoryStore holding up to capacity sessions.
func NewMemoryStore(capacity int, ttl time.Duration) (*MemoryStore, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	cache, err := lru.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}
	return &MemoryStore{cache: cache, ttl: ttl, now: time.Now}, nil
}

func (m *MemoryStore) Get(_ context.Context, userID int64) (*Session, error) {
	v, ok := m.cache.Get(userID)
	if !ok {
		return nil, ErrNoSession
	}
	e := v.(memoryEntry)
	if m.now().After(e.expiresAt) {
		m.cache.Remove(userID)
		return nil, ErrNoSession
	}
	s := e.session
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.cache.Add(s.UserID, memoryEntry{session: *s, expiresAt: m.now().Add(m.ttl)})
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, userID int64) error {
	m.cache.Remove(userID)
	return nil
}

// Len returns the number of cached sessions, expired ones included.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}
