package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "mockshop:"

// RedisRepository keeps the snapshot under a session key that expires after
// ttl, so an abandoned session disappears on its own.
type RedisRepository struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisRepository(client *redis.Client, sessionID string, ttl time.Duration) *RedisRepository {
	return &RedisRepository{
		client: client,
		key:    redisKeyPrefix + SnapshotKeyFor(sessionID),
		ttl:    ttl,
	}
}

func (r *RedisRepository) Key() string { return r.key }

func (r *RedisRepository) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return r.client.Ping(ctx).Err()
	})
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func (r *RedisRepository) Load(ctx context.Context) ([]Product, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return decodeSnapshot(data)
}

func (r *RedisRepository) Save(ctx context.Context, products []Product) error {
	data, err := encodeSnapshot(products)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}
