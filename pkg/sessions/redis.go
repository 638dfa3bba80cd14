package sessions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type redisStore struct {
	log *zap.SugaredLogger
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore stores sessions as JSON values under "sess:<id>" with the
// given TTL. The TTL is refreshed on every Put.
func NewRedisStore(rdb *redis.Client, ttl time.Duration, log *zap.SugaredLogger) Store {
	return &redisStore{log: log, rdb: rdb, ttl: ttl}
}

func (r *redisStore) key(id string) string { return "sess:" + id }

func (r *redisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := r.rdb.Get(ctx, r.key(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		// Unreadable entry: drop it rather than poison every request.
		_ = r.rdb.Del(ctx, r.key(id)).Err()
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *redisStore) Put(ctx context.Context, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, r.key(s.ID), raw, r.ttl).Err()
}

func (r *redisStore) Destroy(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, r.key(id)).Err()
}
