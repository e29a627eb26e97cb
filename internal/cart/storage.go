package cart

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Storage is the injected durable store for serialized cart state. One key
// holds the whole line list; concurrent writers to the same key race and the
// last write wins (accepted, see Store docs).
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

type redisStorage struct {
	client *redis.Client
}

// NewRedisStorage returns a Storage backed by the given Redis address.
// Carts have no TTL: they survive until submitted or cleared.
func NewRedisStorage(addr string) Storage {
	return &redisStorage{client: redis.NewClient(&redis.Options{Addr: addr})}
}

func (s *redisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (s *redisStorage) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, key, value, 0).Err()
}

// MemoryStorage is an in-memory Storage for tests.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte

	GetErr error
	SetErr error
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: make(map[string][]byte)}
}

func (s *MemoryStorage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.GetErr != nil {
		return nil, s.GetErr
	}
	return s.data[key], nil
}

func (s *MemoryStorage) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SetErr != nil {
		return s.SetErr
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	s.data[key] = cp
	return nil
}
