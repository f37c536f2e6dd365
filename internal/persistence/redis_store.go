package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MimeLyc/dialogue-translator/internal/lookup"
)

const defaultRedisPrefix = "dialogue:"

// RedisStore keeps each temp segment as one JSON value, so several
// translator processes can share what they learn.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore connects to url (e.g. "redis://localhost:6379/0").
func NewRedisStore(url, keyPrefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStoreFromClient(client, keyPrefix), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) ReadTemp(ctx context.Context, key string) (lookup.Table, error) {
	val, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return lookup.Table{}, nil
	}
	if err != nil {
		return nil, err
	}

	var ret lookup.Table
	if err := json.Unmarshal([]byte(val), &ret); err != nil {
		return nil, fmt.Errorf("parse %s: %w", key, err)
	}
	return ret, nil
}

func (s *RedisStore) WriteTemp(ctx context.Context, key string, entries lookup.Table) error {
	data, err := json.Marshal(markTemp(entries))
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.keyPrefix+key, string(data), 0).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ TempStore = (*RedisStore)(nil)
