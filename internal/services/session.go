package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// RevokedBeforeKeyPrefix maps a user id to the unix time in milliseconds before which their tokens are void.
	RevokedBeforeKeyPrefix = "token_revoked_before:"
)

// TokenRevocations tracks per-user cut-off times for previously issued tokens.
type TokenRevocations interface {
	RevokeBefore(ctx context.Context, userID string, at time.Time) error
	RevokedBefore(ctx context.Context, userID string) (time.Time, bool, error)
}

// RedisTokenRevocations keeps cut-offs for as long as a token can live.
type RedisTokenRevocations struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTokenRevocations(client *redis.Client, tokenLifetime time.Duration) *RedisTokenRevocations {
	return &RedisTokenRevocations{client: client, ttl: tokenLifetime}
}

func (r *RedisTokenRevocations) RevokeBefore(ctx context.Context, userID string, at time.Time) error {
	return r.client.Set(ctx, RevokedBeforeKeyPrefix+userID, at.UnixMilli(), r.ttl).Err()
}

func (r *RedisTokenRevocations) RevokedBefore(ctx context.Context, userID string) (time.Time, bool, error) {
	val, err := r.client.Get(ctx, RevokedBeforeKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, err
	}
	return time.UnixMilli(ms), true, nil
}
