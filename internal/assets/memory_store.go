package assets

import (
	"context"
	"sync"
)

// MemoryStore 是进程内资源仓库，适合测试与预热场景。
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore 创建空的内存资源仓库。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	rec, ok := s.records[key]
	s.mu.RUnlock()
	if !ok || len(rec.Value) == 0 {
		return nil, ErrNotFound
	}
	out := Record{Value: append([]byte(nil), rec.Value...), Metadata: rec.Metadata}
	return &out, nil
}

func (s *MemoryStore) Put(ctx context.Context, key string, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.records[key] = Record{Value: append([]byte(nil), rec.Value...), Metadata: rec.Metadata}
	s.mu.Unlock()
	return nil
}
