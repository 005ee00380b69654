package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"mosaic/internal/core/domain"
	"mosaic/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

type RedisSlotRepository struct {
	client *redis.Client
	prefix string
}

func NewRedisSlotRepository(client *redis.Client) ports.SlotRepository {
	return &RedisSlotRepository{
		client: client,
		prefix: "mosaic:slot:",
	}
}

func (r *RedisSlotRepository) slotKey(id domain.SlotID) string {
	return r.prefix + string(id)
}

func (r *RedisSlotRepository) indexKey() string {
	return r.prefix + "index"
}

func (r *RedisSlotRepository) List(ctx context.Context) ([]*domain.Slot, error) {
	ids, err := r.client.LRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read slot index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.slotKey(domain.SlotID(id))
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read slots: %w", err)
	}

	slots := make([]*domain.Slot, 0, len(values))
	for _, v := range values {
		data, ok := v.(string)
		if !ok {
			// Index entry with no backing key; skip rather than fail the
			// whole list.
			continue
		}
		var slot domain.Slot
		if err := json.Unmarshal([]byte(data), &slot); err != nil {
			return nil, fmt.Errorf("failed to unmarshal slot: %w", err)
		}
		slots = append(slots, &slot)
	}
	return slots, nil
}

func (r *RedisSlotRepository) Update(ctx context.Context, slot *domain.Slot) error {
	key := r.slotKey(slot.ID)
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check slot existence: %w", err)
	}
	if exists == 0 {
		return domain.ErrSlotNotFound
	}

	data, err := json.Marshal(slot)
	if err != nil {
		return fmt.Errorf("failed to marshal slot: %w", err)
	}
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to update slot in Redis: %w", err)
	}
	return nil
}

// ReplaceAll swaps the stored slot set in a single MULTI/EXEC so readers
// never observe the window between delete and re-create.
func (r *RedisSlotRepository) ReplaceAll(ctx context.Context, slots []*domain.Slot) error {
	existing, err := r.client.LRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to read slot index: %w", err)
	}

	pipe := r.client.TxPipeline()
	for _, id := range existing {
		pipe.Del(ctx, r.slotKey(domain.SlotID(id)))
	}
	pipe.Del(ctx, r.indexKey())

	for _, slot := range slots {
		data, err := json.Marshal(slot)
		if err != nil {
			return fmt.Errorf("failed to marshal slot: %w", err)
		}
		pipe.Set(ctx, r.slotKey(slot.ID), data, 0)
		pipe.RPush(ctx, r.indexKey(), string(slot.ID))
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to replace slots in Redis: %w", err)
	}
	return nil
}

func (r *RedisSlotRepository) DeleteAll(ctx context.Context) error {
	return r.ReplaceAll(ctx, nil)
}
