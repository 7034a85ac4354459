// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const resetKeyPrefix = "reset_token"

// RedisResetTokenStore stores password reset tokens in Redis with a TTL.
type RedisResetTokenStore struct {
	client *redis.Client
}

func NewRedisResetTokenStore(client *redis.Client) *RedisResetTokenStore {
	return &RedisResetTokenStore{client: client}
}

func (s *RedisResetTokenStore) Store(ctx context.Context, tokenHash string, accountID uuid.UUID, ttl time.Duration) error {
	key := fmt.Sprintf("%s:%s", resetKeyPrefix, tokenHash)
	if err := s.client.Set(ctx, key, accountID.String(), ttl).Err(); err != nil {
		return fmt.Errorf("storing reset token: %w", err)
	}
	return nil
}

// Consume atomically fetches and deletes the token entry. Expired entries
// are gone by the time they are looked up, so expiry and absence collapse
// into the same error.
func (s *RedisResetTokenStore) Consume(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	key := fmt.Sprintf("%s:%s", resetKeyPrefix, tokenHash)

	value, err := s.client.GetDel(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrResetTokenNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("consuming reset token: %w", err)
	}

	accountID, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, ErrResetTokenNotFound
	}

	return accountID, nil
}
