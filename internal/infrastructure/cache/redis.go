package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anuragind003/cdp-offer-engine/internal/config"
	domainRepo "github.com/anuragind003/cdp-offer-engine/internal/domain/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient creates a redis client and verifies the connection.
func NewRedisClient(cfg *config.RedisConfig, log *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Redis connection established",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
	)

	return client, nil
}

// redisRepository implements the CacheRepository interface
type redisRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisRepository creates a redis-backed cache repository.
func NewRedisRepository(client *redis.Client, logger *zap.Logger) domainRepo.CacheRepository {
	return &redisRepository{
		client: client,
		logger: logger,
	}
}

// Set stores a value under key with a TTL
func (r *redisRepository) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	if err := r.client.Set(ctx, key, value, expiration).Err(); err != nil {
		r.logger.Error("Redis set failed",
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("failed to set cache key: %w", err)
	}
	return nil
}

// Get retrieves the value under key; a miss returns redis.Nil
func (r *redisRepository) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", err
		}
		r.logger.Error("Redis get failed",
			zap.String("key", key),
			zap.Error(err))
		return "", err
	}
	return value, nil
}

// Delete removes the given keys
func (r *redisRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Error("Redis delete failed",
			zap.Strings("keys", keys),
			zap.Error(err))
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	return nil
}

// IsNotFound reports whether err represents a cache miss
func (r *redisRepository) IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
