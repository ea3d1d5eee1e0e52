package kvstore

import (
	"context"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisStore はRedisをバックエンドとするStore実装。
// Redis操作が失敗した場合はプロセス内のMemoryStoreへ縮退し、
// 呼び出し側には決してエラーを伝播しない。
// 一度フォールバックに書かれたキーはプロセス生存中のみ有効で、
// 永続性は保証されない。
type RedisStore struct {
	client *redis.Client

	// フォールバック書き込みが発生したキーを記録し、
	// 以後の読み取りでRedisが復旧してもメモリ側を優先する。
	mu       sync.RWMutex
	degraded map[string]bool
	fallback *MemoryStore
}

// NewRedisStore は接続確認済みのRedisクライアントからRedisStoreを生成する。
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:   client,
		degraded: make(map[string]bool),
		fallback: NewMemoryStore(),
	}
}

// NewRedisClient はredisURLを解析してクライアントを生成し、接続を確認する。
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return client, nil
}

// Get は指定キーの値を取得する。
// フォールバック済みキーはメモリから、それ以外はRedisから読み取る。
// Redis障害時はメモリ側の値を返す（存在しなければfalse）。
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool) {
	s.mu.RLock()
	degraded := s.degraded[key]
	s.mu.RUnlock()

	if degraded {
		return s.fallback.Get(ctx, key)
	}

	v, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		slog.Warn("kvstore: redis get failed, falling back to memory",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return s.fallback.Get(ctx, key)
	}
	return v, true
}

// Set は指定キーに値を保存する。
// Redis書き込み失敗時はメモリへ保存し、以後そのキーはメモリ側を正とする。
func (s *RedisStore) Set(ctx context.Context, key, value string) {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		slog.Warn("kvstore: redis set failed, falling back to memory",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		s.markDegraded(key)
		s.fallback.Set(ctx, key, value)
		return
	}

	// Redisへの書き込みが成功したらフォールバック記録を解除する
	s.mu.Lock()
	delete(s.degraded, key)
	s.mu.Unlock()
	s.fallback.Remove(ctx, key)
}

// Remove は指定キーを削除する。Redis障害時もメモリ側は必ず削除する。
func (s *RedisStore) Remove(ctx context.Context, key string) {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		slog.Warn("kvstore: redis del failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	} else {
		s.mu.Lock()
		delete(s.degraded, key)
		s.mu.Unlock()
	}
	s.fallback.Remove(ctx, key)
}

// markDegraded はキーをフォールバック管理下に置く。
func (s *RedisStore) markDegraded(key string) {
	s.mu.Lock()
	s.degraded[key] = true
	s.mu.Unlock()
}

// compile-time interface check
var _ Store = (*RedisStore)(nil)
