package repo

import (
	"context"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/model"
	"github.com/google/uuid"
)

// AccountRepo persists accounts. Writes after creation are field scoped so
// that a status change can never overwrite a concurrently rotated refresh
// slot with a stale value. Every write bumps UpdatedAt.
type AccountRepo interface {
	CreateAccount(ctx context.Context, a model.Account) (uuid.UUID, error)

	GetAccountByID(ctx context.Context, id uuid.UUID) (model.Account, error)

	GetAccountByUsername(ctx context.Context, username string) (model.Account, error)

	// SetRefreshHash overwrites the refresh slot unconditionally. An empty
	// hash clears it. Unknown ids return ErrNotFound.
	SetRefreshHash(ctx context.Context, id uuid.UUID, hash string) error

	// SwapRefreshHash writes next only if the slot still holds expected,
	// otherwise it returns ErrStaleSession.
	SwapRefreshHash(ctx context.Context, id uuid.UUID, expected, next string) error

	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}
