// Package guard verifies bearer tokens at the transport boundary before a
// request reaches the lifecycle engine.
package guard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Miraines/MoonyAndStarry/session-service/internal/app/auth/service"
	customErrors "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/jwt"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/model"
	repo "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/repo"
	"github.com/google/uuid"
)

var ErrMissingToken = fmt.Errorf("%w: missing bearer token", customErrors.ErrInvalidToken)

type Guard struct {
	signer jwt.Signer
	svc    service.Service
	tokens repo.TokenRepo
}

// New builds a Guard. tokens may be nil, in which case logout does not
// denylist the presented access token.
func New(s jwt.Signer, svc service.Service, tokens repo.TokenRepo) *Guard {
	return &Guard{signer: s, svc: svc, tokens: tokens}
}

// Access resolves an access token to a live principal.
func (g *Guard) Access(ctx context.Context, raw string) (*model.Principal, jwt.AccessClaims, error) {
	if raw == "" {
		return nil, jwt.AccessClaims{}, ErrMissingToken
	}
	claims, err := g.signer.VerifyAccess(raw)
	if err != nil {
		return nil, jwt.AccessClaims{}, err
	}

	if g.tokens != nil && claims.ID != "" {
		revoked, err := g.tokens.IsAccessRevoked(ctx, claims.ID)
		if err != nil {
			return nil, jwt.AccessClaims{}, asInternal(err, "IsAccessRevoked")
		}
		if revoked {
			return nil, jwt.AccessClaims{}, customErrors.ErrTokenRevoked
		}
	}

	p, err := g.svc.ValidateAccessClaims(ctx, claims)
	if err != nil {
		return nil, jwt.AccessClaims{}, err
	}
	if p == nil {
		return nil, jwt.AccessClaims{}, customErrors.ErrInvalidToken
	}
	return p, claims, nil
}

// Refresh verifies a refresh token and returns its subject. Whether the
// token is still the current one is decided by the engine.
func (g *Guard) Refresh(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, ErrMissingToken
	}
	claims, err := g.signer.VerifyRefresh(raw)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.AccountID(), nil
}

// RevokeAccess denylists the token described by claims until it expires.
func (g *Guard) RevokeAccess(ctx context.Context, claims jwt.AccessClaims) error {
	if g.tokens == nil || claims.ID == "" {
		return nil
	}
	exp := time.Now()
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	if err := g.tokens.RevokeAccess(ctx, claims.ID, exp); err != nil {
		return asInternal(err, "RevokeAccess")
	}
	return nil
}

// BearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RefreshToken picks the refresh token from the Authorization header,
// falling back to the request body field.
func RefreshToken(header, body string) (string, error) {
	if t, ok := BearerToken(header); ok {
		return t, nil
	}
	if t := strings.TrimSpace(body); t != "" {
		return t, nil
	}
	return "", ErrMissingToken
}

func asInternal(err error, op string) error {
	if customErrors.IsInternal(err) {
		return err
	}
	return customErrors.WrapInternal(err, op)
}
