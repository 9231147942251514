package redis

import (
	"context"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/errors"
	"github.com/redis/go-redis/v9"
)

const accessPrefix = "a:"

// minTTL keeps entries for tokens that are already past exp from
// living forever.
const minTTL = time.Minute

type RedisTokenRepo struct {
	client *redis.Client
}

func NewRedisTokenRepo(client *redis.Client) *RedisTokenRepo {
	return &RedisTokenRepo{
		client: client,
	}
}

func (r *RedisTokenRepo) RevokeAccess(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return customErrors.NewInvalidArgument("empty jti")
	}
	if err := r.client.Set(ctx, accessPrefix+jti, 1, safeTTL(expiresAt)).Err(); err != nil {
		return customErrors.WrapInternal(err, "RevokeAccess")
	}
	return nil
}

// IsAccessRevoked reports true together with the error when redis is
// unreachable, so callers that ignore the error still fail closed.
func (r *RedisTokenRepo) IsAccessRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, accessPrefix+jti).Result()
	if err != nil {
		return true, customErrors.WrapInternal(err, "IsAccessRevoked")
	}
	return n > 0, nil
}

func (r *RedisTokenRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func safeTTL(exp time.Time) time.Duration {
	ttl := time.Until(exp)
	if ttl < minTTL {
		return minTTL
	}
	return ttl
}
