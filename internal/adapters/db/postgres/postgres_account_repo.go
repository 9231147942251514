package postgres

import (
	"context"
	"errors"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

type PostgresAccountRepo struct {
	db *gorm.DB
}

func NewPostgresAccountRepo(db *gorm.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

func (p *PostgresAccountRepo) CreateAccount(ctx context.Context, a model.Account) (uuid.UUID, error) {
	res := p.db.WithContext(ctx).Create(&a)
	if err := res.Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return uuid.Nil, customErrors.ErrAlreadyExists
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return uuid.Nil, customErrors.ErrAlreadyExists
		}
		return uuid.Nil, customErrors.WrapInternal(err, "CreateAccount")
	}
	return a.ID, nil
}

func (p *PostgresAccountRepo) GetAccountByID(ctx context.Context, id uuid.UUID) (model.Account, error) {
	var a model.Account
	res := p.db.WithContext(ctx).Where("id = ?", id).First(&a)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Account{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.Account{}, customErrors.WrapInternal(err, "GetAccountByID")
	}

	return a, nil
}

func (p *PostgresAccountRepo) GetAccountByUsername(ctx context.Context, username string) (model.Account, error) {
	var a model.Account
	res := p.db.WithContext(ctx).Where("username = ?", username).First(&a)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Account{}, customErrors.ErrNotFound
	}
	if err := res.Error; err != nil {
		return model.Account{}, customErrors.WrapInternal(err, "GetAccountByUsername")
	}

	return a, nil
}

func (p *PostgresAccountRepo) SetRefreshHash(ctx context.Context, id uuid.UUID, hash string) error {
	res := p.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"current_refresh_token_hash": hash,
			"updated_at":                 time.Now().UTC(),
		})
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "SetRefreshHash")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}

	return nil
}

// SwapRefreshHash is a single conditional UPDATE, so two rotations of the
// same token cannot both match.
func (p *PostgresAccountRepo) SwapRefreshHash(ctx context.Context, id uuid.UUID, expected, next string) error {
	res := p.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ? AND current_refresh_token_hash = ?", id, expected).
		Updates(map[string]any{
			"current_refresh_token_hash": next,
			"updated_at":                 time.Now().UTC(),
		})
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "SwapRefreshHash")
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := p.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return customErrors.WrapInternal(err, "SwapRefreshHash")
	}
	if n == 0 {
		return customErrors.ErrNotFound
	}
	return customErrors.ErrStaleSession
}

func (p *PostgresAccountRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := p.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":  active,
			"updated_at": time.Now().UTC(),
		})
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "SetActive")
	}
	if res.RowsAffected == 0 {
		return customErrors.ErrNotFound
	}

	return nil
}

// Ping is used by the health endpoint.
func (p *PostgresAccountRepo) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
