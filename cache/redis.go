package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisBackend 基于Redis的后端
type RedisBackend struct {
	client RedisClient
	closer func() error
}

// NewRedisBackend 包装已有的Redis客户端
func NewRedisBackend(client RedisClient) *RedisBackend {
	return &RedisBackend{client: client}
}

func (r *RedisBackend) Get(ctx context.Context, key string) (string, error) {
	if r.client == nil {
		return "", ErrRedisNotAvailable
	}
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "redis get %s", key)
	}
	return val, nil
}

func (r *RedisBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if r.client == nil {
		return ErrRedisNotAvailable
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return errors.Wrapf(err, "redis set %s", key)
	}
	return nil
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	if r.client == nil {
		return ErrRedisNotAvailable
	}
	return r.client.Del(ctx, key).Err()
}

func (r *RedisBackend) Close() error {
	if r.closer != nil {
		return r.closer()
	}
	return nil
}

// Options Redis连接参数
type Options struct {
	Addr     string
	Password string
	DB       int
	// Mock 强制使用内存模式
	Mock bool
	TTL  time.Duration
}

// Open 根据配置创建快照缓存
//
// Addr 为空且未开启 Mock 时返回 nil，表示不使用缓存。
// Redis 连接失败时退回内存模式，不阻止客户端启动。
func Open(ctx context.Context, opts Options, logger *slog.Logger) *Snapshot {
	if opts.Mock {
		logger.Info("snapshot cache using mock mode")
		return NewSnapshot(NewMockBackend(), opts.TTL)
	}
	if opts.Addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 3 * time.Second,
		ReadTimeout: 3 * time.Second,
		PoolSize:    10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, snapshot cache falling back to mock mode", "addr", opts.Addr, "error", err)
		_ = client.Close()
		return NewSnapshot(NewMockBackend(), opts.TTL)
	}

	logger.Info("snapshot cache connected to redis", "addr", opts.Addr)
	backend := NewRedisBackend(client)
	backend.closer = client.Close
	return NewSnapshot(backend, opts.TTL)
}
