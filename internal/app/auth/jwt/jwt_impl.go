package jwt

import (
	"errors"
	"time"

	customErrors "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/errors"
	jwt2 "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/jwt"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/infra/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const clockSkew = 30 * time.Second

type key struct {
	secret []byte
	ttl    time.Duration
}

// SignerImpl signs each purpose with its own secret, so a token can only
// ever validate for the purpose it was issued for.
type SignerImpl struct {
	access   key
	refresh  key
	issuer   string
	audience string
	now      func() time.Time
}

func NewSigner(cfg *config.Config) (*SignerImpl, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SignerImpl{
		access:   key{secret: []byte(cfg.AccessTokenSecret), ttl: cfg.AccessTokenTTL},
		refresh:  key{secret: []byte(cfg.RefreshTokenSecret), ttl: cfg.RefreshTokenTTL},
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		now:      time.Now,
	}, nil
}

func (s *SignerImpl) AccessTTL() time.Duration  { return s.access.ttl }
func (s *SignerImpl) RefreshTTL() time.Duration { return s.refresh.ttl }

func (s *SignerImpl) registered(accountID uuid.UUID, ttl time.Duration) jwt.RegisteredClaims {
	now := s.now()
	rc := jwt.RegisteredClaims{
		Subject:   accountID.String(),
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.NewString(),
	}
	if s.audience != "" {
		rc.Audience = jwt.ClaimStrings{s.audience}
	}
	return rc
}

func (s *SignerImpl) IssueAccess(accountID uuid.UUID, username string, roles []string) (string, time.Time, error) {
	claims := jwt2.AccessClaims{
		RegisteredClaims: s.registered(accountID, s.access.ttl),
		Purpose:          jwt2.PurposeAccess,
		Username:         username,
		Roles:            roles,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.access.secret)
	if err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "sign access token")
	}
	return signed, claims.ExpiresAt.Time, nil
}

func (s *SignerImpl) IssueRefresh(accountID uuid.UUID, username string) (string, time.Time, error) {
	claims := jwt2.RefreshClaims{
		RegisteredClaims: s.registered(accountID, s.refresh.ttl),
		Purpose:          jwt2.PurposeRefresh,
		Username:         username,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refresh.secret)
	if err != nil {
		return "", time.Time{}, customErrors.WrapInternal(err, "sign refresh token")
	}
	return signed, claims.ExpiresAt.Time, nil
}

func (s *SignerImpl) VerifyAccess(raw string) (jwt2.AccessClaims, error) {
	var claims jwt2.AccessClaims
	if err := s.parse(raw, &claims, s.access.secret); err != nil {
		return jwt2.AccessClaims{}, err
	}
	if claims.Purpose != jwt2.PurposeAccess {
		return jwt2.AccessClaims{}, customErrors.ErrTokenSignature
	}
	if err := checkSubject(claims.Subject); err != nil {
		return jwt2.AccessClaims{}, err
	}
	if claims.Username == "" || len(claims.Roles) == 0 {
		return jwt2.AccessClaims{}, customErrors.ErrTokenMalformed
	}
	return claims, nil
}

func (s *SignerImpl) VerifyRefresh(raw string) (jwt2.RefreshClaims, error) {
	var claims jwt2.RefreshClaims
	if err := s.parse(raw, &claims, s.refresh.secret); err != nil {
		return jwt2.RefreshClaims{}, err
	}
	if claims.Purpose != jwt2.PurposeRefresh {
		return jwt2.RefreshClaims{}, customErrors.ErrTokenSignature
	}
	if err := checkSubject(claims.Subject); err != nil {
		return jwt2.RefreshClaims{}, err
	}
	if claims.Username == "" {
		return jwt2.RefreshClaims{}, customErrors.ErrTokenMalformed
	}
	return claims, nil
}

func (s *SignerImpl) parse(raw string, claims jwt.Claims, secret []byte) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(clockSkew),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	}, opts...)
	if err != nil {
		return classify(err)
	}
	if !token.Valid {
		return customErrors.ErrTokenSignature
	}
	return nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return customErrors.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return customErrors.ErrTokenSignature
	default:
		return customErrors.ErrTokenMalformed
	}
}

func checkSubject(sub string) error {
	if sub == "" {
		return customErrors.ErrTokenMissingSubject
	}
	if _, err := uuid.Parse(sub); err != nil {
		return customErrors.ErrTokenMalformed
	}
	return nil
}
