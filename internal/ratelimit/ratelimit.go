// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package ratelimit throttles abuse-prone operations such as verification
// resends and password reset requests using a Redis fixed window counter.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRateLimited is returned when the caller exhausted the window budget.
var ErrRateLimited = errors.New("rate limited")

// Limiter counts attempts per key in a fixed time window. A nil Redis
// client disables limiting, which keeps single-binary deployments working
// without a Redis instance.
type Limiter struct {
	client *redis.Client
	prefix string
	max    int
	window time.Duration
}

func New(client *redis.Client, prefix string, max int, window time.Duration) *Limiter {
	return &Limiter{
		client: client,
		prefix: prefix,
		max:    max,
		window: window,
	}
}

// Allow records an attempt for key and returns ErrRateLimited once the
// window budget is exhausted. The first attempt in a window sets the TTL.
func (l *Limiter) Allow(ctx context.Context, key string) error {
	if l == nil || l.client == nil || l.max <= 0 {
		return nil
	}

	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return fmt.Errorf("incrementing rate limit counter: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return fmt.Errorf("setting rate limit expiry: %w", err)
		}
	}

	if count > int64(l.max) {
		return ErrRateLimited
	}

	return nil
}

// Reset clears the counter for key, used after a successful operation.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if l == nil || l.client == nil {
		return nil
	}

	redisKey := fmt.Sprintf("%s:%s", l.prefix, key)
	if err := l.client.Del(ctx, redisKey).Err(); err != nil {
		return fmt.Errorf("resetting rate limit counter: %w", err)
	}

	return nil
}
