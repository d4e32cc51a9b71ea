package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joeschweitzer/bayesian/internal/domain"
	"github.com/joeschweitzer/bayesian/internal/store"
	"github.com/stretchr/testify/mock"
)

// mockNetworkStore implements domain.NetworkStore in memory.
type mockNetworkStore struct {
	mu       sync.Mutex
	networks map[uuid.UUID]*domain.Network
	gets     int
}

func newMockNetworkStore() *mockNetworkStore {
	return &mockNetworkStore{networks: make(map[uuid.UUID]*domain.Network)}
}

func (m *mockNetworkStore) Create(ctx context.Context, n *domain.Network) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.networks {
		if existing.Name == n.Name {
			return store.ErrConflict
		}
	}
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	n.UpdatedAt = n.CreatedAt
	stored := *n
	m.networks[n.ID] = &stored
	return nil
}

func (m *mockNetworkStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Network, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	n, ok := m.networks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *n
	return &out, nil
}

func (m *mockNetworkStore) GetByName(ctx context.Context, name string) (*domain.Network, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.networks {
		if n.Name == name {
			out := *n
			return &out, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockNetworkStore) List(ctx context.Context, limit int) ([]domain.Network, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Network
	for _, n := range m.networks {
		out = append(out, *n)
	}
	return out, nil
}

func (m *mockNetworkStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.networks[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.networks, id)
	return nil
}

// MockNetworkStore is a testify mock for asserting store interactions.
type MockNetworkStore struct {
	mock.Mock
}

func (m *MockNetworkStore) Create(ctx context.Context, n *domain.Network) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockNetworkStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Network, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Network), args.Error(1)
}

func (m *MockNetworkStore) GetByName(ctx context.Context, name string) (*domain.Network, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Network), args.Error(1)
}

func (m *MockNetworkStore) List(ctx context.Context, limit int) ([]domain.Network, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Network), args.Error(1)
}

func (m *MockNetworkStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
