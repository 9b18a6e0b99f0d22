package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "oauth:state:"

// RedisStore keeps state entries as JSON values with a TTL matching their expiry.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// OpenRedis parses a redis:// URL and verifies the server answers.
func OpenRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func (s *RedisStore) Save(ctx context.Context, e Entry) error {
	ttl := time.Until(e.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("oauth state %q already expired", e.State)
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode oauth state: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+e.State, payload, ttl).Err(); err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

func (s *RedisStore) Consume(ctx context.Context, state string) (Entry, error) {
	val, err := s.client.GetDel(ctx, redisKeyPrefix+state).Result()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("consume oauth state: %w", err)
	}

	var e Entry
	if err := json.Unmarshal([]byte(val), &e); err != nil {
		return Entry{}, fmt.Errorf("decode oauth state: %w", err)
	}
	return e, nil
}
