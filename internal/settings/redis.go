package settings

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// KeyValue abstracts the Redis commands the store needs so tests can stub them.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, key string) error
}

type redisKeyValue struct {
	client *redis.Client
}

func (r *redisKeyValue) Get(ctx context.Context, key string) (string, error) {
	return r.client.Get(ctx, key).Result()
}

func (r *redisKeyValue) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

func (r *redisKeyValue) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// RedisStore keeps settings in Redis under a key prefix, without expiry.
type RedisStore struct {
	kv     KeyValue
	prefix string
	retry  retrier
}

// NewRedisStore constructs a store backed by go-redis.
func NewRedisStore(client *redis.Client, prefix string, logger *zap.Logger) *RedisStore {
	return NewKeyValueStore(&redisKeyValue{client: client}, prefix, logger)
}

// NewKeyValueStore constructs a RedisStore over any KeyValue implementation.
func NewKeyValueStore(kv KeyValue, prefix string, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{kv: kv, prefix: prefix, retry: newRetrier(logger.Named("redis_settings"))}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.retry.do(ctx, "settings.redis.get", key, func() error {
		v, err := s.kv.Get(ctx, s.prefix+key)
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		value = v
		return nil
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	return s.retry.do(ctx, "settings.redis.set", key, func() error {
		return s.kv.Set(ctx, s.prefix+key, value, 0)
	})
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.retry.do(ctx, "settings.redis.delete", key, func() error {
		return s.kv.Del(ctx, s.prefix+key)
	})
}
