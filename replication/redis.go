package replication

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lixenwraith/skyfight/core"
	"github.com/lixenwraith/skyfight/snapshot"
)

// KeyLatest holds the most recent full batch
const KeyLatest = "skyfight:snapshot:latest"

// VehicleKey is where one vehicle's latest snapshot is cached
func VehicleKey(id core.VehicleID) string {
	return fmt.Sprintf("skyfight:vehicle:%s", id)
}

// RedisClient defines the Redis operations used by the cache
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Close() error
}

// RedisTarget caches the latest state per vehicle and per session
// Entries expire after ttl so removed vehicles age out
type RedisTarget struct {
	client RedisClient
	ttl    time.Duration
}

// NewRedis connects to addr and verifies it answers
func NewRedis(addr, password string, db int, ttl time.Duration) (*RedisTarget, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisWithClient(client, ttl), nil
}

// NewRedisWithClient wraps an existing client, useful for testing
func NewRedisWithClient(client RedisClient, ttl time.Duration) *RedisTarget {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisTarget{client: client, ttl: ttl}
}

func (r *RedisTarget) Name() string { return "redis" }

func (r *RedisTarget) Replicate(ctx context.Context, b snapshot.Batch) error {
	for _, v := range b.Vehicles {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal vehicle %s: %w", v.ID, err)
		}
		if err := r.client.Set(ctx, VehicleKey(v.ID), data, r.ttl).Err(); err != nil {
			return fmt.Errorf("failed to cache vehicle %s: %w", v.ID, err)
		}
	}

	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal batch %d: %w", b.Tick, err)
	}
	return r.client.Set(ctx, KeyLatest, data, r.ttl).Err()
}

// Vehicle reads a cached snapshot, ok is false when absent or expired
func (r *RedisTarget) Vehicle(ctx context.Context, id core.VehicleID) (core.PhysicsSnapshot, bool, error) {
	var snap core.PhysicsSnapshot
	ok, err := r.get(ctx, VehicleKey(id), &snap)
	return snap, ok, err
}

// Latest reads the cached batch
func (r *RedisTarget) Latest(ctx context.Context) (snapshot.Batch, bool, error) {
	var b snapshot.Batch
	ok, err := r.get(ctx, KeyLatest, &b)
	return b, ok, err
}

func (r *RedisTarget) get(ctx context.Context, key string, target any) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (r *RedisTarget) Close() error {
	return r.client.Close()
}
