// Package session keeps the per-browser state of aicost serve: the SSO
// login in progress, the token, the selected accounts and the last report.
// Sessions live in memory only and never reach disk.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
	"github.com/pankaj-dahiya-devops/aicost/internal/providers/aws/common"
)

// DefaultTTL is the idle time after which a session expires.
const DefaultTTL = 30 * time.Minute

// Session is the state of one web client.
type Session struct {
	ID       string
	StartURL string
	Region   string

	Authorization *models.DeviceAuthorization
	Token         *models.SSOToken
	Accounts      []models.Account

	// Selected holds the account sessions built from role credentials.
	Selected []*common.AccountSession

	Discovery []*models.DiscoveryResult
	Report    *models.Report

	CreatedAt time.Time
	LastSeen  time.Time
}

// New returns an empty session with a random ID.
func New(startURL, region string, now time.Time) Session {
	return Session{
		ID:        uuid.NewString(),
		StartURL:  startURL,
		Region:    region,
		CreatedAt: now,
		LastSeen:  now,
	}
}

// Authenticated reports whether s holds a token valid at now.
func (s Session) Authenticated(now time.Time) bool {
	return s.Token.Valid(now)
}

// Store holds sessions by ID. Implementations must be safe for concurrent
// use. Sessions are passed by value; callers Put after every change.
type Store interface {
	// Get returns the session and refreshes its idle timer. Expired or
	// unknown IDs report false.
	Get(id string) (Session, bool)

	// Put inserts or replaces s.
	Put(s Session)

	// Delete removes the session; unknown IDs are ignored.
	Delete(id string)

	// Expire removes every idle session and returns how many were removed.
	Expire() int
}

// MemoryStore is an in-process Store with an idle TTL.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithTTL sets the idle TTL. Non-positive values keep DefaultTTL.
func WithTTL(d time.Duration) Option {
	return func(m *MemoryStore) {
		if d > 0 {
			m.ttl = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(m *MemoryStore) { m.now = now } }

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(opts ...Option) *MemoryStore {
	m := &MemoryStore{
		sessions: make(map[string]Session),
		ttl:      DefaultTTL,
		now:      time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Get implements Store.
func (m *MemoryStore) Get(id string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return Session{}, false
	}
	now := m.now()
	if m.expired(s, now) {
		delete(m.sessions, id)
		return Session{}, false
	}
	s.LastSeen = now
	m.sessions[id] = s
	return s, true
}

// Put implements Store.
func (m *MemoryStore) Put(s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.LastSeen = m.now()
	m.sessions[s.ID] = s
}

// Delete implements Store.
func (m *MemoryStore) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Expire implements Store.
func (m *MemoryStore) Expire() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for id, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *MemoryStore) expired(s Session, now time.Time) bool {
	return now.Sub(s.LastSeen) >= m.ttl
}
