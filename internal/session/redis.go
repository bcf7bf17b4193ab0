// internal/session/redis.go
//
// Redis-backed session store for multi-process deployments.  Records are
// JSON under `mosaic:sess:<id>` with the TTL pinned to the session's
// absolute expiry, so Redis expires them without a janitor.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "mosaic:sess:"

// RedisStore implements Store on a go-redis client.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore parses the URL ("redis://host:6379/0"), pings once so a bad
// address fails at boot, and returns the store.
func NewRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("session redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("session redis ping: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (st *RedisStore) Put(ctx context.Context, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return st.Delete(ctx, s.ID)
	}
	return st.client.Set(ctx, redisKeyPrefix+s.ID, raw, ttl).Err()
}

func (st *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := st.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (st *RedisStore) Delete(ctx context.Context, id string) error {
	return st.client.Del(ctx, redisKeyPrefix+id).Err()
}

func (st *RedisStore) Close() error { return st.client.Close() }

// Ping backs the diagnostics session-store check.
func (st *RedisStore) Ping(ctx context.Context) error {
	return st.client.Ping(ctx).Err()
}
