package cartstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bellybee/checkout/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRepository implements CartRepository for testing
type MockRepository struct {
	mu      sync.Mutex
	carts   map[string]*domain.Cart
	getErr  error
	deletes []string
}

func newMockRepository() *MockRepository {
	return &MockRepository{carts: map[string]*domain.Cart{}}
}

func (m *MockRepository) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	cart, ok := m.carts[userID]
	if !ok {
		return nil, ErrCartNotFound
	}
	return cart, nil
}

func (m *MockRepository) UpsertCart(_ context.Context, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[cart.UserID] = cart
	return nil
}

func (m *MockRepository) DeleteCart(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	m.deletes = append(m.deletes, userID)
	return nil
}

// MockCache implements CartCache for testing
type MockCache struct {
	mu      sync.Mutex
	entries map[string]*domain.Cart
	deletes []string
}

func newMockCache() *MockCache {
	return &MockCache{entries: map[string]*domain.Cart{}}
}

func (m *MockCache) Get(_ context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart, ok := m.entries[userID]
	if !ok {
		return nil, ErrCacheMiss
	}
	return cart, nil
}

func (m *MockCache) Set(_ context.Context, userID string, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userID] = cart
	return nil
}

func (m *MockCache) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, userID)
	m.deletes = append(m.deletes, userID)
	return nil
}

func TestStoreGet_EmptyCartWhenNotFound(t *testing.T) {
	store := NewStore(newMockRepository(), newMockCache())

	cart, err := store.Get(context.Background(), "new-user")

	require.NoError(t, err)
	assert.Equal(t, "new-user", cart.UserID)
	assert.Empty(t, cart.Lines)
}

func TestStoreGet_FromRepository(t *testing.T) {
	repo := newMockRepository()
	repo.carts["u1"] = &domain.Cart{
		UserID: "u1",
		Lines:  []domain.CartLine{{ID: "p1", Price: 100, Quantity: 1}},
	}
	store := NewStore(repo, newMockCache())

	cart, err := store.Get(context.Background(), "u1")

	require.NoError(t, err)
	assert.Len(t, cart.Lines, 1)
}

func TestStoreGet_PrefersCache(t *testing.T) {
	repo := newMockRepository()
	repo.getErr = errors.New("repo must not be hit")
	cache := newMockCache()
	cache.entries["u1"] = &domain.Cart{UserID: "u1", Lines: []domain.CartLine{{ID: "p9", Price: 50, Quantity: 3}}}
	store := NewStore(repo, cache)

	cart, err := store.Get(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, "p9", cart.Lines[0].ID)
}

func TestStoreSave_InvalidatesCache(t *testing.T) {
	repo := newMockRepository()
	cache := newMockCache()
	cache.entries["u1"] = &domain.Cart{UserID: "u1"}
	store := NewStore(repo, cache)

	cart := &domain.Cart{UserID: "u1", Lines: []domain.CartLine{{ID: "p1", Price: 100, Quantity: 2}}}
	require.NoError(t, store.Save(context.Background(), cart))

	assert.Contains(t, cache.deletes, "u1")
	stored, _ := repo.GetCart(context.Background(), "u1")
	assert.Len(t, stored.Lines, 1)
}

func TestStoreClear_DeletesEverywhere(t *testing.T) {
	repo := newMockRepository()
	repo.carts["u1"] = &domain.Cart{UserID: "u1"}
	cache := newMockCache()
	cache.entries["u1"] = &domain.Cart{UserID: "u1"}
	store := NewStore(repo, cache)

	require.NoError(t, store.Clear(context.Background(), "u1"))

	assert.Contains(t, repo.deletes, "u1")
	assert.Contains(t, cache.deletes, "u1")
	_, err := repo.GetCart(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrCartNotFound)
}
