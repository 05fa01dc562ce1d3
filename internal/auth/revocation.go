package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const revokedKeyPrefix = "calispro-revoked||"

var _ RevocationChecker = (*Revoker)(nil)

type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Revoker keeps logged-out token ids in redis until the tokens would have expired anyway.
type Revoker struct {
	redisClient *redis.Client
	// injectable for tests
	Now func() time.Time
}

func NewRevoker(redisClient *redis.Client) *Revoker {
	return &Revoker{
		redisClient: redisClient,
		Now:         time.Now,
	}
}

func (r *Revoker) Revoke(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.TokenID == "" {
		return ErrInvalidToken
	}

	ttl := claims.ExpiresAt.Sub(r.Now())
	if ttl <= 0 {
		// already expired, nothing to remember
		return nil
	}

	if err := r.redisClient.Set(ctx, revokedKeyPrefix+claims.TokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *Revoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := r.redisClient.Get(ctx, revokedKeyPrefix+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return true, nil
}
