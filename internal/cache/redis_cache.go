package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	replayKeyPrefix  = "esnafdefter:replay:"
	reserveKeyPrefix = "esnafdefter:replay-lock:"
)

type RedisReplayCache struct {
	client *redis.Client
}

func NewRedisReplayCache(addr string, password string, db int) *RedisReplayCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisReplayCache{client: client}
}

func (c *RedisReplayCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisReplayCache) Close() error {
	return c.client.Close()
}

func (c *RedisReplayCache) Get(ctx context.Context, key string) (*Replay, bool, error) {
	val, err := c.client.Get(ctx, replayKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var replay Replay
	if err := json.Unmarshal(val, &replay); err != nil {
		return nil, false, err
	}
	return &replay, true, nil
}

func (c *RedisReplayCache) Set(ctx context.Context, key string, value *Replay, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, replayKeyPrefix+key, payload, ttl).Err()
}

// Reserve takes the key with SETNX; the ttl frees it if the holder dies.
func (c *RedisReplayCache) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, reserveKeyPrefix+key, 1, ttl).Result()
}

func (c *RedisReplayCache) Release(ctx context.Context, key string) error {
	return c.client.Del(ctx, reserveKeyPrefix+key).Err()
}
