package service

import (
	"context"
	"strings"
	"time"

	"github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/app/auth/hash"
	customErrors "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/jwt"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/model"
	repo "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/repo"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type authService struct {
	accounts repo.AccountRepo
	hasher   hash.Hasher
	signer   jwt.Signer
	v        *validator.Validate
	log      *zap.Logger
	metrics  Metrics
}

// Service is the token lifecycle engine. Refresh and Logout expect a
// subject that the caller already extracted from a verified token.
type Service interface {
	// Register is self-service sign-up and may only request DefaultRoles.
	Register(context.Context, dto.RegisterDTO) (model.Principal, error)
	// CreateAccount provisions an account with any roles. Callers must
	// have authorized the actor as an administrator.
	CreateAccount(context.Context, dto.RegisterDTO) (model.Principal, error)
	Login(context.Context, dto.LoginDTO) (model.TokenPair, error)
	Refresh(ctx context.Context, subject uuid.UUID, refreshToken string) (model.TokenPair, error)
	Logout(ctx context.Context, subject uuid.UUID) error
	ValidateAccessClaims(context.Context, jwt.AccessClaims) (*model.Principal, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (model.Principal, error)
	Profile(ctx context.Context, id uuid.UUID) (model.Principal, error)
}

func New(
	ar repo.AccountRepo,
	h hash.Hasher,
	s jwt.Signer,
	v *validator.Validate,
	log *zap.Logger,
	m Metrics,
) Service {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = nopMetrics{}
	}
	return &authService{
		accounts: ar, hasher: h, signer: s, v: v, log: log, metrics: m,
	}
}

func (a *authService) Register(ctx context.Context, in dto.RegisterDTO) (model.Principal, error) {
	if err := a.normalize(&in); err != nil {
		return model.Principal{}, err
	}
	for _, r := range in.Roles {
		if r != model.RoleUser {
			return model.Principal{}, customErrors.ErrForbidden
		}
	}
	return a.create(ctx, in)
}

func (a *authService) CreateAccount(ctx context.Context, in dto.RegisterDTO) (model.Principal, error) {
	if err := a.normalize(&in); err != nil {
		return model.Principal{}, err
	}
	return a.create(ctx, in)
}

func (a *authService) normalize(in *dto.RegisterDTO) error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := a.v.Struct(in); err != nil {
		return customErrors.NewInvalidArgument(err.Error())
	}
	return nil
}

func (a *authService) create(ctx context.Context, in dto.RegisterDTO) (model.Principal, error) {
	passwordHash, err := a.hasher.Hash(in.Password)
	if err != nil {
		return model.Principal{}, customErrors.WrapInternal(err, "create account")
	}

	roles := in.Roles
	if len(roles) == 0 {
		roles = model.DefaultRoles
	}
	now := time.Now().UTC()
	acc := model.Account{
		ID:           uuid.New(),
		Username:     in.Username,
		PasswordHash: passwordHash,
		Roles:        dedupe(roles),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.Email != "" {
		email := in.Email
		acc.Email = &email
	}

	if _, err = a.accounts.CreateAccount(ctx, acc); err != nil {
		if customErrors.IsAlreadyExists(err) {
			return model.Principal{}, customErrors.ErrAlreadyExists
		}
		return model.Principal{}, customErrors.WrapInternal(err, "create account")
	}

	a.log.Info("account registered",
		zap.String("account_id", acc.ID.String()), zap.Strings("roles", acc.Roles))
	return acc.Principal(), nil
}

func (a *authService) Login(ctx context.Context, in dto.LoginDTO) (model.TokenPair, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := a.v.Struct(in); err != nil {
		return model.TokenPair{}, customErrors.NewInvalidArgument(err.Error())
	}

	acc, err := a.accounts.GetAccountByUsername(ctx, in.Username)
	switch {
	case customErrors.IsNotFound(err):
		// Same cost as a wrong password.
		a.hasher.DummyVerify(in.Password)
		a.metrics.ObserveLogin(OutcomeInvalidCredentials)
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	case err != nil:
		a.metrics.ObserveLogin(OutcomeError)
		return model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}

	if !a.hasher.Verify(in.Password, acc.PasswordHash) {
		a.metrics.ObserveLogin(OutcomeInvalidCredentials)
		return model.TokenPair{}, customErrors.ErrInvalidCredentials
	}
	if !acc.IsActive {
		a.metrics.ObserveLogin(OutcomeInactive)
		return model.TokenPair{}, customErrors.ErrAccountInactive
	}

	pair, digest, err := a.issueTokens(acc)
	if err != nil {
		a.metrics.ObserveLogin(OutcomeError)
		return model.TokenPair{}, err
	}
	if err := a.accounts.SetRefreshHash(ctx, acc.ID, digest); err != nil {
		a.metrics.ObserveLogin(OutcomeError)
		return model.TokenPair{}, customErrors.WrapInternal(err, "Login")
	}

	a.metrics.ObserveLogin(OutcomeSuccess)
	a.log.Debug("login", zap.String("account_id", acc.ID.String()))
	return pair, nil
}

func (a *authService) Refresh(ctx context.Context, subject uuid.UUID, refreshToken string) (model.TokenPair, error) {
	acc, err := a.accounts.GetAccountByID(ctx, subject)
	switch {
	case customErrors.IsNotFound(err):
		a.metrics.ObserveRefresh(OutcomeRevoked)
		return model.TokenPair{}, customErrors.ErrSessionRevoked
	case err != nil:
		a.metrics.ObserveRefresh(OutcomeError)
		return model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}
	if !acc.HasSession() {
		a.metrics.ObserveRefresh(OutcomeRevoked)
		return model.TokenPair{}, customErrors.ErrSessionRevoked
	}

	if !a.hasher.Verify(refreshToken, acc.CurrentRefreshTokenHash) {
		// A signed but non-current refresh token means reuse or theft:
		// end the session so every holder has to log in again.
		a.log.Warn("refresh token reuse detected, session revoked",
			zap.String("account_id", acc.ID.String()))
		return model.TokenPair{}, a.revoke(ctx, acc.ID, RevocationReuse)
	}

	pair, digest, err := a.issueTokens(acc)
	if err != nil {
		a.metrics.ObserveRefresh(OutcomeError)
		return model.TokenPair{}, err
	}

	err = a.accounts.SwapRefreshHash(ctx, acc.ID, acc.CurrentRefreshTokenHash, digest)
	switch {
	case customErrors.IsStaleSession(err):
		// Another request rotated this token first, so ours is a replay.
		a.log.Warn("concurrent refresh lost the race, session revoked",
			zap.String("account_id", acc.ID.String()))
		return model.TokenPair{}, a.revoke(ctx, acc.ID, RevocationRace)
	case customErrors.IsNotFound(err):
		a.metrics.ObserveRefresh(OutcomeRevoked)
		return model.TokenPair{}, customErrors.ErrSessionRevoked
	case err != nil:
		a.metrics.ObserveRefresh(OutcomeError)
		return model.TokenPair{}, customErrors.WrapInternal(err, "Refresh")
	}

	a.metrics.ObserveRefresh(OutcomeSuccess)
	return pair, nil
}

// revoke clears the slot and reports ErrSessionRevoked, unless the clear
// itself fails.
func (a *authService) revoke(ctx context.Context, id uuid.UUID, reason string) error {
	a.metrics.ObserveRefresh(OutcomeRevoked)
	if err := a.accounts.SetRefreshHash(ctx, id, ""); err != nil && !customErrors.IsNotFound(err) {
		return customErrors.WrapInternal(err, "revoke session")
	}
	a.metrics.ObserveRevocation(reason)
	return customErrors.ErrSessionRevoked
}

func (a *authService) Logout(ctx context.Context, subject uuid.UUID) error {
	acc, err := a.accounts.GetAccountByID(ctx, subject)
	switch {
	case customErrors.IsNotFound(err):
		return nil
	case err != nil:
		return customErrors.WrapInternal(err, "Logout")
	}
	if !acc.HasSession() {
		return nil
	}

	if err := a.accounts.SetRefreshHash(ctx, acc.ID, ""); err != nil && !customErrors.IsNotFound(err) {
		return customErrors.WrapInternal(err, "Logout")
	}
	a.metrics.ObserveRevocation(RevocationLogout)
	return nil
}

func (a *authService) ValidateAccessClaims(ctx context.Context, claims jwt.AccessClaims) (*model.Principal, error) {
	acc, err := a.accounts.GetAccountByID(ctx, claims.AccountID())
	switch {
	case customErrors.IsNotFound(err):
		return nil, nil
	case err != nil:
		return nil, customErrors.WrapInternal(err, "ValidateAccessClaims")
	}
	if !acc.IsActive {
		return nil, nil
	}

	p := acc.Principal()
	return &p, nil
}

func (a *authService) SetActive(ctx context.Context, id uuid.UUID, active bool) (model.Principal, error) {
	if err := a.accounts.SetActive(ctx, id, active); err != nil {
		if customErrors.IsNotFound(err) {
			return model.Principal{}, customErrors.ErrNotFound
		}
		return model.Principal{}, customErrors.WrapInternal(err, "SetActive")
	}
	a.log.Info("account status changed",
		zap.String("account_id", id.String()), zap.Bool("active", active))
	return a.Profile(ctx, id)
}

func (a *authService) Profile(ctx context.Context, id uuid.UUID) (model.Principal, error) {
	acc, err := a.accounts.GetAccountByID(ctx, id)
	switch {
	case customErrors.IsNotFound(err):
		return model.Principal{}, customErrors.ErrNotFound
	case err != nil:
		return model.Principal{}, customErrors.WrapInternal(err, "Profile")
	}
	return acc.Principal(), nil
}

// issueTokens signs a fresh pair and hashes its refresh half for storage.
func (a *authService) issueTokens(acc model.Account) (model.TokenPair, string, error) {
	at, atExp, err := a.signer.IssueAccess(acc.ID, acc.Username, acc.Roles)
	if err != nil {
		return model.TokenPair{}, "", customErrors.WrapInternal(err, "IssueAccess")
	}
	rt, rtExp, err := a.signer.IssueRefresh(acc.ID, acc.Username)
	if err != nil {
		return model.TokenPair{}, "", customErrors.WrapInternal(err, "IssueRefresh")
	}
	digest, err := a.hasher.Hash(rt)
	if err != nil {
		return model.TokenPair{}, "", customErrors.WrapInternal(err, "hash refresh token")
	}

	now := time.Now()
	return model.TokenPair{
		AccessToken:  at,
		RefreshToken: rt,
		AccessTTL:    atExp.Sub(now),
		RefreshTTL:   rtExp.Sub(now),
		AccountID:    acc.ID,
	}, digest, nil
}

func dedupe(roles []string) []string {
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
