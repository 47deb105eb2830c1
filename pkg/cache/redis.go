package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "card-hunter:snapshot:"

// RedisStore keeps snapshots as JSON values that expire after a retention
// period, so queries nobody repeats eventually disappear.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisStore(ctx context.Context, addr string, retention time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedisStoreFromClient(client, retention), nil
}

func NewRedisStoreFromClient(client *redis.Client, retention time.Duration) *RedisStore {
	return &RedisStore{client: client, retention: retention}
}

func (s *RedisStore) Load(ctx context.Context, query string) (Entry, bool, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+query).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, fmt.Errorf("snapshot %q: %w", query, err)
	}
	return e, true, nil
}

func (s *RedisStore) Save(ctx context.Context, e Entry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("snapshot %q: %w", e.Query, err)
	}
	return s.client.Set(ctx, redisKeyPrefix+e.Query, raw, s.retention).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
