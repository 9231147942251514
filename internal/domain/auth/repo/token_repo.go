package repo

import (
	"context"
	"time"
)

// TokenRepo is the access-token denylist. Entries expire together with
// the token they revoke.
type TokenRepo interface {
	RevokeAccess(ctx context.Context, jti string, expiresAt time.Time) error

	IsAccessRevoked(ctx context.Context, jti string) (bool, error)
}
