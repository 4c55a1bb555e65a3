package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/bgatm/replay-engine/pkg/replay"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	replays   map[string]*replay.GameReplay
	raw       map[string][]byte
	tables    map[string][]byte
	pingError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		replays: make(map[string]*replay.GameReplay),
		raw:     make(map[string][]byte),
		tables:  make(map[string][]byte),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveReplay mocks saving a reconstructed replay
func (m *MockStorage) SaveReplay(ctx context.Context, g *replay.GameReplay) error {
	if g == nil {
		return errors.New("replay cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replays[replayKey(g.ReplayID, g.PlayerPerspective)] = g
	return nil
}

// LoadReplay mocks loading a reconstructed replay
func (m *MockStorage) LoadReplay(ctx context.Context, tableID, perspective string) (*replay.GameReplay, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.replays[replayKey(tableID, perspective)], nil
}

// SaveRawDocument mocks saving a raw match document
func (m *MockStorage) SaveRawDocument(ctx context.Context, tableID, perspective string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw[tableID+":"+perspective] = data
	return nil
}

// LoadRawDocument mocks loading a raw match document
func (m *MockStorage) LoadRawDocument(ctx context.Context, tableID, perspective string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.raw[tableID+":"+perspective], nil
}

// HasRawDocument mocks the raw document existence check
func (m *MockStorage) HasRawDocument(ctx context.Context, tableID, perspective string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.raw[tableID+":"+perspective]
	return ok, nil
}

// SaveTablePage mocks saving a table page
func (m *MockStorage) SaveTablePage(ctx context.Context, tableID, perspective string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[tableID+":"+perspective] = data
	return nil
}

// LoadTablePage mocks loading a table page
func (m *MockStorage) LoadTablePage(ctx context.Context, tableID, perspective string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tables[tableID+":"+perspective], nil
}
