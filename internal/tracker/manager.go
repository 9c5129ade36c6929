package tracker

import (
	"context"
	"sync"

	"github.com/Minpi-0/Health-Tracker/internal/auth"
	"github.com/Minpi-0/Health-Tracker/internal/store"
	"github.com/Minpi-0/Health-Tracker/pkg/logger"
)

// Manager owns one Session per signed-in user, created lazily on first use
// and torn down when the identity session ends.
type Manager struct {
	tenantID string
	st       store.DocumentStore
	archiver PlanArchiver
	log      *logger.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager. archiver may be nil when plan
// archiving is not configured.
func NewManager(tenantID string, st store.DocumentStore, archiver PlanArchiver, log *logger.Logger) *Manager {
	return &Manager{
		tenantID: tenantID,
		st:       st,
		archiver: archiver,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// Session returns the user's session, starting its store subscriptions on
// first use.
func (m *Manager) Session(ctx context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	// Start outside the manager lock: subscribing performs store I/O and
	// may deliver the initial snapshots synchronously. The session outlives
	// the request that created it, so its subscriptions must not inherit
	// the request's cancellation.
	s := NewSession(userID, m.tenantID, m.st, m.archiver, m.log)
	if err := s.Start(context.WithoutCancel(ctx)); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[userID]; ok {
		// Lost the race; keep the established session.
		go s.Close()
		return existing, nil
	}
	m.sessions[userID] = s
	return s, nil
}

// Close tears down the user's session and its store listeners, if any.
func (m *Manager) Close(userID string) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()
	if ok {
		s.Close()
		m.log.Infow("session closed", "user", userID)
	}
}

// CloseAll tears down every session. Used at shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}

// HandleAuthEvent releases a user's session when their identity session
// ends, so no listener keeps running against a stale scope.
func (m *Manager) HandleAuthEvent(event auth.Event) {
	if !event.SignedIn {
		m.Close(event.User.ID)
	}
}
