package testutil

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"branchkit/internal/db"
)

// MockHistoryStore is a testify mock of the branch history store
type MockHistoryStore struct {
	mock.Mock
}

func (m *MockHistoryStore) Append(ctx context.Context, rec *db.HistoryRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockHistoryStore) ListRecent(ctx context.Context, limit int) ([]db.HistoryRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]db.HistoryRecord), args.Error(1)
}

// MockConfigStore is a testify mock of the settings store
type MockConfigStore struct {
	mock.Mock
}

func (m *MockConfigStore) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockConfigStore) Put(ctx context.Context, key, value string) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

// MemoryConfigStore keeps settings in a map
type MemoryConfigStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryConfigStore creates an empty store
func NewMemoryConfigStore() *MemoryConfigStore {
	return &MemoryConfigStore{values: make(map[string]string)}
}

func (s *MemoryConfigStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryConfigStore) Put(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}
