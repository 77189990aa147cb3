package httpapi

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quietspotter/quietspotter/internal/domain"
	"github.com/quietspotter/quietspotter/internal/observability"
	"github.com/quietspotter/quietspotter/internal/store"
)

// StoreFactory creates and opens a fresh Domain Store for a new session.
type StoreFactory func(ctx context.Context) (*store.Store, error)

type session struct {
	store    *store.Store
	lastSeen time.Time
}

// SessionManager hands each client its own Domain Store, keyed by an opaque
// token. Stores live for the session TTL past the last request that used them.
type SessionManager struct {
	factory StoreFactory
	ttl     time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics

	mu       sync.Mutex
	sessions map[string]*session
}

// NewSessionManager creates a session manager with the given idle TTL.
func NewSessionManager(factory StoreFactory, ttl time.Duration, metrics *observability.Metrics, logger *slog.Logger) *SessionManager {
	return &SessionManager{
		factory:  factory,
		ttl:      ttl,
		logger:   logger,
		metrics:  metrics,
		sessions: make(map[string]*session),
	}
}

// Create opens a new session and returns its token.
func (m *SessionManager) Create(ctx context.Context) (string, error) {
	st, err := m.factory(ctx)
	if err != nil {
		return "", err
	}
	token := uuid.NewString()

	m.mu.Lock()
	m.sessions[token] = &session{store: st, lastSeen: domain.Now()}
	m.metrics.SessionsActive.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	m.logger.Info("session created", "token_prefix", token[:8])
	return token, nil
}

// Get resolves a token to its store, refreshing the idle timer. Returns nil
// for unknown or expired tokens.
func (m *SessionManager) Get(token string) *store.Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[token]
	if !ok {
		return nil
	}
	now := domain.Now()
	if now.Sub(sess.lastSeen) > m.ttl {
		delete(m.sessions, token)
		m.metrics.SessionsActive.Set(float64(len(m.sessions)))
		return nil
	}
	sess.lastSeen = now
	return sess.store
}

// Delete ends a session. Unknown tokens are a no-op.
func (m *SessionManager) Delete(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[token]; !ok {
		return
	}
	delete(m.sessions, token)
	m.metrics.SessionsActive.Set(float64(len(m.sessions)))
}

// Sweep removes sessions idle past the TTL. Intended to run periodically.
func (m *SessionManager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := domain.Now()
	removed := 0
	for token, sess := range m.sessions {
		if now.Sub(sess.lastSeen) > m.ttl {
			delete(m.sessions, token)
			removed++
		}
	}
	if removed > 0 {
		m.metrics.SessionsActive.Set(float64(len(m.sessions)))
		m.logger.Debug("expired sessions swept", "removed", removed)
	}
	return removed
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
