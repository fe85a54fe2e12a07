package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"example.com/hotswap/services/recovery/config"
	"example.com/hotswap/services/recovery/domain"
)

// CacheClient defines the interface for cache operations
type CacheClient interface {
	GetClassState(ctx context.Context, aggregateID string) (*domain.ClassState, error)
	SetClassState(ctx context.Context, state *domain.ClassState) error
	DeleteClassState(ctx context.Context, aggregateID string) error
	FlushAll(ctx context.Context) error
}

// RedisClient implements CacheClient using Redis
type RedisClient struct {
	client  *redis.Client
	enabled bool
	ttl     time.Duration
}

// NewRedisClient creates a new Redis client. A disabled config yields a
// no-op client so callers don't branch on caching.
func NewRedisClient(cfg config.Config) (CacheClient, error) {
	if !cfg.RedisEnabled {
		return &RedisClient{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client:  client,
		enabled: true,
		ttl:     time.Hour,
	}, nil
}

func classStateKey(aggregateID string) string {
	return fmt.Sprintf("class_state:%s", aggregateID)
}

// GetClassState retrieves a reconstructed class state from cache
func (c *RedisClient) GetClassState(ctx context.Context, aggregateID string) (*domain.ClassState, error) {
	if !c.enabled {
		return nil, redis.Nil
	}

	data, err := c.client.Get(ctx, classStateKey(aggregateID)).Bytes()
	if err != nil {
		return nil, err
	}

	var state domain.ClassState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}

	return &state, nil
}

// SetClassState caches a reconstructed class state
func (c *RedisClient) SetClassState(ctx context.Context, state *domain.ClassState) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, classStateKey(state.AggregateID), data, c.ttl).Err()
}

// DeleteClassState removes a cached class state
func (c *RedisClient) DeleteClassState(ctx context.Context, aggregateID string) error {
	if !c.enabled {
		return nil
	}

	return c.client.Del(ctx, classStateKey(aggregateID)).Err()
}

// FlushAll clears all cache
func (c *RedisClient) FlushAll(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	return c.client.FlushAll(ctx).Err()
}
