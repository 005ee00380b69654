package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"mosaic/internal/core/domain"
	"mosaic/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisGridConfigRepository struct {
	client *redis.Client
	key    string
}

func NewRedisGridConfigRepository(client *redis.Client) ports.GridConfigRepository {
	return &RedisGridConfigRepository{
		client: client,
		key:    "mosaic:grid:config",
	}
}

func (r *RedisGridConfigRepository) Get(ctx context.Context) (*domain.GridConfig, error) {
	data, err := r.client.Get(ctx, r.key).Result()
	if err == redis.Nil {
		return nil, domain.ErrGridConfigNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get grid config from Redis: %w", err)
	}

	var cfg domain.GridConfig
	if err := json.Unmarshal([]byte(data), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal grid config: %w", err)
	}
	return &cfg, nil
}

func (r *RedisGridConfigRepository) Put(ctx context.Context, cfg *domain.GridConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal grid config: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set grid config in Redis: %w", err)
	}
	return nil
}
