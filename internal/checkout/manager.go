package checkout

import (
	"context"
	"sync"

	"github.com/bellybee/checkout/internal/cartstore"
	"github.com/bellybee/checkout/internal/location"
	"github.com/bellybee/checkout/internal/payment"
)

// SessionDeps builds the per-session collaborators. Each session gets its own
// resolver and orchestrator; the store and finalizer are shared.
type SessionDeps struct {
	Store       *cartstore.Store
	Finalizer   *Finalizer
	NewResolver func() *location.Resolver
	NewOrchestr func(userID string) *payment.Orchestrator
}

// Manager hands out one session per user id.
type Manager struct {
	deps SessionDeps

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(deps SessionDeps) *Manager {
	return &Manager{
		deps:     deps,
		sessions: make(map[string]*Session),
	}
}

// Get returns the user's session, creating one (and loading the persisted
// cart) on first use.
func (m *Manager) Get(ctx context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	s, err := NewSession(ctx, userID, m.deps.Store, m.deps.NewResolver(), m.deps.NewOrchestr(userID), m.deps.Finalizer)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[userID]; ok {
		return existing, nil
	}
	m.sessions[userID] = s
	return s, nil
}

// Drop discards a user's session, e.g. after finalization so the next visit
// starts fresh from the (now empty) persisted cart.
func (m *Manager) Drop(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
