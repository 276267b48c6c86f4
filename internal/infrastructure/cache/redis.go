package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/XwcdX/MANPRO-SKRIPSI-sub000/internal/config"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisCache keeps per-lecturer-per-period capacity counters. It is a hint
// for hot-path reads; the relational transaction remains the source of
// truth, and the counter is invalidated whenever the two could diverge.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr, password string, db int) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisCache{client: rdb}
}

func NewRedisCacheWithConfig(cfg *config.CacheConfig) *RedisCache {
	return NewRedisCache(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), cfg.Password, cfg.DB)
}

func (r *RedisCache) GetClient() *redis.Client {
	return r.client
}

func capacityKey(lecturerID, periodID uuid.UUID) string {
	return fmt.Sprintf("lecturer:capacity:%s:%s", lecturerID.String(), periodID.String())
}

func (r *RedisCache) GetCapacity(ctx context.Context, lecturerID, periodID uuid.UUID) (int, error) {
	val, err := r.client.Get(ctx, capacityKey(lecturerID, periodID)).Result()
	if err != nil {
		if err == redis.Nil {
			return -1, fmt.Errorf("capacity not cached")
		}
		return -1, fmt.Errorf("failed to get capacity from cache: %w", err)
	}

	capacity, err := strconv.Atoi(val)
	if err != nil {
		return -1, fmt.Errorf("invalid capacity value in cache: %w", err)
	}

	return capacity, nil
}

func (r *RedisCache) SetCapacity(ctx context.Context, lecturerID, periodID uuid.UUID, capacity int, ttl time.Duration) error {
	if err := r.client.Set(ctx, capacityKey(lecturerID, periodID), capacity, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set capacity in cache: %w", err)
	}
	return nil
}

// DecrementCapacity decrements atomically with a floor at zero. The Lua
// script rejects both a missing key and an exhausted counter, so two racing
// acceptances can never drive the cached value negative.
func (r *RedisCache) DecrementCapacity(ctx context.Context, lecturerID, periodID uuid.UUID) (int, error) {
	luaScript := `
		local key = KEYS[1]
		local current = redis.call("GET", key)
		if current == false then
			return redis.error_reply("capacity key not found")
		end
		local value = tonumber(current)
		if value <= 0 then
			return redis.error_reply("capacity exhausted")
		end
		return redis.call("DECR", key)
	`

	result, err := r.client.Eval(ctx, luaScript, []string{capacityKey(lecturerID, periodID)}).Result()
	if err != nil {
		return -1, fmt.Errorf("failed to decrement capacity: %w", err)
	}

	newValue, ok := result.(int64)
	if !ok {
		return -1, fmt.Errorf("unexpected decrement result type %T", result)
	}

	return int(newValue), nil
}

func (r *RedisCache) IncrementCapacity(ctx context.Context, lecturerID, periodID uuid.UUID) (int, error) {
	luaScript := `
		local key = KEYS[1]
		local current = redis.call("GET", key)
		if current == false then
			return redis.error_reply("capacity key not found")
		end
		return redis.call("INCR", key)
	`

	result, err := r.client.Eval(ctx, luaScript, []string{capacityKey(lecturerID, periodID)}).Result()
	if err != nil {
		return -1, fmt.Errorf("failed to increment capacity: %w", err)
	}

	newValue, ok := result.(int64)
	if !ok {
		return -1, fmt.Errorf("unexpected increment result type %T", result)
	}

	return int(newValue), nil
}

func (r *RedisCache) InvalidateCapacity(ctx context.Context, lecturerID, periodID uuid.UUID) error {
	if err := r.client.Del(ctx, capacityKey(lecturerID, periodID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate capacity: %w", err)
	}
	return nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
