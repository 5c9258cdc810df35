// Package cache keeps single-product lookups in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cryptomart/internal/domain"
)

// ErrMiss is returned by Get when the product is not cached.
var ErrMiss = errors.New("cache miss")

// ProductCache stores products by id.
type ProductCache interface {
	Get(ctx context.Context, id string) (domain.Product, error)
	Set(ctx context.Context, p domain.Product) error
	Delete(ctx context.Context, ids ...string) error
}

// Connect dials Redis and verifies it with a ping.
func Connect(ctx context.Context, addr, password string, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	if logger != nil {
		logger.Info("redis connection established", zap.String("addr", addr))
	}
	return rdb, nil
}

type redisProducts struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedis returns a ProductCache whose entries expire after ttl.
func NewRedis(rdb redis.Cmdable, ttl time.Duration) ProductCache {
	return &redisProducts{rdb: rdb, ttl: ttl}
}

func productKey(id string) string {
	return "product:" + id
}

func (c *redisProducts) Get(ctx context.Context, id string) (domain.Product, error) {
	data, err := c.rdb.Get(ctx, productKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Product{}, ErrMiss
	}
	if err != nil {
		return domain.Product{}, err
	}
	var p domain.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Product{}, fmt.Errorf("decode cached product %s: %w", id, err)
	}
	return p, nil
}

func (c *redisProducts) Set(ctx context.Context, p domain.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, productKey(p.ID), data, c.ttl).Err()
}

func (c *redisProducts) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Nop never holds anything. It is used when Redis is not configured.
type Nop struct{}

func (Nop) Get(context.Context, string) (domain.Product, error) { return domain.Product{}, ErrMiss }
func (Nop) Set(context.Context, domain.Product) error           { return nil }
func (Nop) Delete(context.Context, ...string) error             { return nil }
