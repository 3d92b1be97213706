package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/qemplois/assistant/booking"
)

const redisPrefix = "booking:session:"

// Redis stores JSON session snapshots with a sliding expiry.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps client. A zero ttl keeps sessions until deleted.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func redisKey(key booking.Key) string {
	return redisPrefix + key.String()
}

// Get implements Store. A hit pushes the expiry back by ttl.
func (r *Redis) Get(ctx context.Context, key booking.Key) (*booking.Session, bool, error) {
	k := redisKey(key)
	var get *redis.StringCmd
	_, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		get = p.Get(ctx, k)
		if r.ttl > 0 {
			p.Expire(ctx, k, r.ttl)
		}
		return nil
	})
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("session: redis get %s: %w", key, err)
	}
	data, err := get.Bytes()
	if err != nil {
		return nil, false, fmt.Errorf("session: redis get %s: %w", key, err)
	}
	var s booking.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false, fmt.Errorf("session: decode %s: %w", key, err)
	}
	s.Key = key
	return &s, true, nil
}

// Put implements Store.
func (r *Redis) Put(ctx context.Context, s *booking.Session) error {
	if s == nil {
		return ErrNilSession
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", s.Key, err)
	}
	if err := r.client.Set(ctx, redisKey(s.Key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set %s: %w", s.Key, err)
	}
	return nil
}

// Delete implements Store.
func (r *Redis) Delete(ctx context.Context, key booking.Key) error {
	if err := r.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("session: redis del %s: %w", key, err)
	}
	return nil
}
