package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// NewRedis returns a Gate persisted in Redis.
func NewRedis(client *redis.Client, opts ...Option) *Links {
	return newLinks(redisBackend{client: client}, opts...)
}

type redisBackend struct {
	client *redis.Client
}

func (r redisBackend) get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("auth: redis get: %w", err)
	}
	return data, true, nil
}

func (r redisBackend) set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, val, ttl).Err(); err != nil {
		return fmt.Errorf("auth: redis set: %w", err)
	}
	return nil
}

func (r redisBackend) del(ctx context.Context, keys ...string) error {
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("auth: redis del: %w", err)
	}
	return nil
}

// NewMemory returns a Gate kept in process memory.
func NewMemory(opts ...Option) *Links {
	mem := &memoryBackend{entries: make(map[string]memoryEntry)}
	l := newLinks(mem, opts...)
	mem.now = l.now
	return l
}

type memoryEntry struct {
	val     []byte
	expires time.Time
}

type memoryBackend struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func (m *memoryBackend) get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return e.val, true, nil
}

func (m *memoryBackend) set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memoryEntry{val: append([]byte(nil), val...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.entries[key] = e
	return nil
}

func (m *memoryBackend) del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}
