package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docdex-io/docdex/internal/domain"
)

// Manager is the in-memory session registry. Sessions created through
// it share the manager's default configuration.
type Manager struct {
	cfg Config
	log *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager creates a registry whose sessions start from cfg.
func NewManager(cfg Config, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	cfg.Logger = log
	return &Manager{
		cfg:      cfg,
		log:      log,
		sessions: map[string]*Session{},
	}
}

// Create registers a new session under a generated id.
func (m *Manager) Create() (*Session, error) {
	sess, err := New(uuid.NewString(), m.cfg)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[sess.ID()] = sess
	m.mu.Unlock()
	m.log.Debug("session created", zap.String("session_id", sess.ID()))
	return sess, nil
}

// Get returns the session or ErrSessionNotFound.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrSessionNotFound)
	}
	return sess, nil
}

// Delete removes the session and releases its index. Deleting an
// unknown id is a no-op.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		_ = sess.Close()
		m.log.Debug("session deleted", zap.String("session_id", id))
	}
}

// Clear removes every session.
func (m *Manager) Clear() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = map[string]*Session{}
	m.mu.Unlock()
	for _, sess := range sessions {
		_ = sess.Close()
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
