// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces chatpane keys in a shared Redis database.
const DefaultRedisPrefix = "chatpane:"

// RedisOptions configures a RedisSubstrate.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisSubstrate stores keys as plain Redis strings under a prefix.
type RedisSubstrate struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisSubstrate connects to Redis and verifies the connection with PING.
func NewRedisSubstrate(ctx context.Context, opts RedisOptions) (*RedisSubstrate, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisSubstrate{rdb: rdb, prefix: prefix}, nil
}

// Get implements Substrate.
func (r *RedisSubstrate) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.rdb.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, true, nil
}

// Set implements Substrate.
func (r *RedisSubstrate) Set(ctx context.Context, key, value string) error {
	if err := r.rdb.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Remove implements Substrate.
func (r *RedisSubstrate) Remove(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Close implements Substrate.
func (r *RedisSubstrate) Close() error {
	return r.rdb.Close()
}
