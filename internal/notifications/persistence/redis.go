package persistence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/petconnect/internal/notifications/domain"
)

// DefaultRedisKey is the list holding the history.
const DefaultRedisKey = "petconnect:notifications"

// RedisHistory keeps the history in a Redis list, newest at index 0, so
// several server replicas share one feed.
type RedisHistory struct {
	client   *redis.Client
	key      string
	capacity int
}

// NewRedisHistory creates a Redis-backed history.
func NewRedisHistory(client *redis.Client, key string, capacity int) *RedisHistory {
	if key == "" {
		key = DefaultRedisKey
	}
	if capacity <= 0 {
		capacity = domain.DefaultHistoryCapacity
	}
	return &RedisHistory{client: client, key: key, capacity: capacity}
}

// Add pushes n to the head and trims the list in one MULTI block.
func (h *RedisHistory) Add(ctx context.Context, n domain.Notification) error {
	payload, err := marshalRecord(n)
	if err != nil {
		return err
	}

	_, err = h.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, h.key, payload)
		pipe.LTrim(ctx, h.key, 0, int64(h.capacity-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}
	return nil
}

// List returns the history newest first.
func (h *RedisHistory) List(ctx context.Context) ([]domain.Notification, error) {
	values, err := h.client.LRange(ctx, h.key, 0, int64(h.capacity-1)).Result()
	if err == redis.Nil {
		return []domain.Notification{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	out := make([]domain.Notification, 0, len(values))
	for _, v := range values {
		n, err := unmarshalRecord([]byte(v))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// Clear deletes the list.
func (h *RedisHistory) Clear(ctx context.Context) error {
	if err := h.client.Del(ctx, h.key).Err(); err != nil {
		return fmt.Errorf("failed to clear notifications: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (h *RedisHistory) Ping(ctx context.Context) error {
	return h.client.Ping(ctx).Err()
}
