package clicks

import (
	"context"
	"sync"
)

type MemStorage struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemStorage() *MemStorage {
	return &MemStorage{m: map[string][]byte{}}
}

func (s *MemStorage) Ping(ctx context.Context) error { return nil }

func (s *MemStorage) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (s *MemStorage) Save(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	s.m[key] = v
	return nil
}
