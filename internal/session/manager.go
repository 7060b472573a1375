package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cojournalist/internal/logging"
	"github.com/jonathan/cojournalist/internal/types"
	"go.uber.org/zap"
)

// Manager holds the live sessions of the process, keyed by id and scoped to
// the identity that created them.
type Manager struct {
	deps   *Deps
	ttl    time.Duration
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session

	// now is replaced in tests.
	now func() time.Time
}

// NewManager creates a manager. Sessions idle for longer than ttl are
// removed by Sweep; a ttl of zero disables eviction.
func NewManager(deps *Deps, ttl time.Duration) *Manager {
	return &Manager{
		deps:     deps,
		ttl:      ttl,
		logger:   logging.OrNop(deps.Logger),
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Create starts a new session for identity.
func (m *Manager) Create(identity types.Identity) *Session {
	s := New(uuid.NewString(), identity, m.deps)
	s.Touch(m.now())

	m.mu.Lock()
	m.sessions[s.ID()] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.deps.Metrics.SetActiveSessions(n)
	m.logger.Info("session created",
		zap.String("session_id", s.ID()),
		zap.String("external_id", identity.ExternalID),
	)
	return s
}

// Get returns the session with id if it belongs to identity, and marks it
// active.
func (m *Manager) Get(id string, identity types.Identity) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()

	if !ok || s.Identity().ExternalID != identity.ExternalID {
		return nil, &NotFoundError{ID: id}
	}
	s.Touch(m.now())
	return s, nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep removes sessions idle since before now minus the ttl. Busy sessions
// are kept. Returns the number removed.
func (m *Manager) Sweep(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-m.ttl)

	m.mu.Lock()
	removed := 0
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) && !s.Busy() {
			delete(m.sessions, id)
			removed++
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	m.deps.Metrics.SetActiveSessions(n)
	if removed > 0 {
		m.logger.Info("evicted idle sessions", zap.Int("removed", removed), zap.Int("remaining", n))
	}
	return removed
}

// DropOwner removes every session of an identity. Returns the number removed.
func (m *Manager) DropOwner(externalID string) int {
	m.mu.Lock()
	removed := 0
	for id, s := range m.sessions {
		if s.Identity().ExternalID == externalID {
			delete(m.sessions, id)
			removed++
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()

	m.deps.Metrics.SetActiveSessions(n)
	return removed
}
