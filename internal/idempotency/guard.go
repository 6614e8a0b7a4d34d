// Package idempotency makes a key claimable exactly once, so a payment
// confirmation replayed by the browser does not place a second order.
package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type Guard interface {
	// Claim reports true the first time key is seen within the TTL.
	Claim(ctx context.Context, key string) (bool, error)
	// Release forgets key so a failed attempt can be retried.
	Release(ctx context.Context, key string) error
}

type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func (r *Redis) Claim(ctx context.Context, key string) (bool, error) {
	return r.rdb.SetNX(ctx, "idem:"+key, "1", r.ttl).Result()
}

func (r *Redis) Release(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, "idem:"+key).Err()
}

type Memory struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, seen: map[string]time.Time{}, now: time.Now}
}

func (m *Memory) Claim(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if exp, ok := m.seen[key]; ok && now.Before(exp) {
		return false, nil
	}
	m.seen[key] = now.Add(m.ttl)
	return true, nil
}

func (m *Memory) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, key)
	return nil
}
