package clientstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores session values under session:<id>:<key>.
type Redis struct {
	rdb        *redis.Client
	sessionTTL time.Duration
	durableTTL time.Duration
}

func NewRedis(rdb *redis.Client, sessionTTL, durableTTL time.Duration) *Redis {
	return &Redis{rdb: rdb, sessionTTL: sessionTTL, durableTTL: durableTTL}
}

func (r *Redis) Session(id string) KV { return &redisSession{r: r, id: id} }

type redisSession struct {
	r  *Redis
	id string
}

func (s *redisSession) key(k string) string { return "session:" + s.id + ":" + k }

func (s *redisSession) ttl(k string) time.Duration {
	if SessionScoped(k) {
		return s.r.sessionTTL
	}
	return s.r.durableTTL
}

func (s *redisSession) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.r.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *redisSession) Set(ctx context.Context, key, value string) error {
	return s.r.rdb.Set(ctx, s.key(key), value, s.ttl(key)).Err()
}

func (s *redisSession) Delete(ctx context.Context, key string) error {
	return s.r.rdb.Del(ctx, s.key(key)).Err()
}
