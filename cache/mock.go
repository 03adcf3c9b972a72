package cache

import (
	"context"
	"sync"
	"time"
)

type mockEntry struct {
	value     string
	expiresAt time.Time
}

// MockBackend 内存实现，Redis不可用或强制模拟模式时使用
type MockBackend struct {
	mu   sync.Mutex
	data map[string]mockEntry
	now  func() time.Time
}

// NewMockBackend 创建内存后端
func NewMockBackend() *MockBackend {
	return &MockBackend{
		data: make(map[string]mockEntry),
		now:  time.Now,
	}
}

func (m *MockBackend) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.data[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.data, key)
		return "", ErrKeyNotFound
	}
	return e.value, nil
}

func (m *MockBackend) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := mockEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.data[key] = e
	return nil
}

func (m *MockBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockBackend) Close() error {
	return nil
}
