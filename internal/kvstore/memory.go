package kvstore

import (
	"context"
	"sync"
)

// MemoryStore はプロセス内マップによるStore実装。
// Redisが利用できない環境でのフォールバック先、およびテストで使用する。
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryStore はMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]string),
	}
}

// Get は指定キーの値を取得する。
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// Set は指定キーに値を保存する。
func (s *MemoryStore) Set(_ context.Context, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Remove は指定キーを削除する。
func (s *MemoryStore) Remove(_ context.Context, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// compile-time interface check
var _ Store = (*MemoryStore)(nil)
