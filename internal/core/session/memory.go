package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore 进程内会话存储，未配置 redis 时使用
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memItem
	Now   func() time.Time
}

type memItem struct {
	data      *Data
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memItem), Now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !s.Now().Before(it.expiresAt) {
		delete(s.items, id)
		return nil, ErrNotFound
	}
	return it.data.clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, id string, d *Data, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = memItem{data: d.clone(), expiresAt: s.Now().Add(ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
