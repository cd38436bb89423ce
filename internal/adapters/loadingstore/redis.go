package loadingstore

import (
	"context"
	"encoding/json"
	"errors"
	"farm-delivery-service/internal/domain"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "loading:"

// RedisStore keeps each loaded-state table in one Redis hash (field = order id,
// value = JSON entry) so loading progress survives a server restart.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps a client. Tables expire ttl after their last write; zero keeps them.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// OpenRedis parses a redis:// URL and verifies the connection.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("open redis: parse url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("open redis: ping: %w", err)
	}
	return client, nil
}

func (r *RedisStore) Get(ctx context.Context, key, orderID string) (domain.LoadedEntry, bool, error) {
	raw, err := r.client.HGet(ctx, keyPrefix+key, orderID).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.LoadedEntry{}, false, nil
	}
	if err != nil {
		return domain.LoadedEntry{}, false, fmt.Errorf("redis loading store get: %w", err)
	}

	var e domain.LoadedEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return domain.LoadedEntry{}, false, fmt.Errorf("redis loading store decode %q: %w", orderID, err)
	}
	return e, true, nil
}

func (r *RedisStore) Put(ctx context.Context, key string, entry domain.LoadedEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis loading store encode: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, keyPrefix+key, entry.OrderID, raw)
	if r.ttl > 0 {
		pipe.Expire(ctx, keyPrefix+key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis loading store put: %w", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key, orderID string) error {
	if err := r.client.HDel(ctx, keyPrefix+key, orderID).Err(); err != nil {
		return fmt.Errorf("redis loading store delete: %w", err)
	}
	return nil
}

func (r *RedisStore) All(ctx context.Context, key string) (map[string]domain.LoadedEntry, error) {
	raw, err := r.client.HGetAll(ctx, keyPrefix+key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis loading store all: %w", err)
	}

	out := make(map[string]domain.LoadedEntry, len(raw))
	for id, v := range raw {
		var e domain.LoadedEntry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			return nil, fmt.Errorf("redis loading store decode %q: %w", id, err)
		}
		out[id] = e
	}
	return out, nil
}

func (r *RedisStore) Clear(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis loading store clear: %w", err)
	}
	return nil
}
