package jwt

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"time"
)

const (
	PurposeAccess  = "access"
	PurposeRefresh = "refresh"
)

type AccessClaims struct {
	jwt.RegisteredClaims
	Purpose  string   `json:"typ"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// AccountID is only meaningful on claims returned by a Signer, which
// rejects subjects that are not UUIDs.
func (c AccessClaims) AccountID() uuid.UUID {
	id, _ := uuid.Parse(c.Subject)
	return id
}

// RefreshClaims intentionally carry no roles.
type RefreshClaims struct {
	jwt.RegisteredClaims
	Purpose  string `json:"typ"`
	Username string `json:"username"`
}

func (c RefreshClaims) AccountID() uuid.UUID {
	id, _ := uuid.Parse(c.Subject)
	return id
}

type Signer interface {
	IssueAccess(accountID uuid.UUID, username string, roles []string) (token string, exp time.Time, err error)
	IssueRefresh(accountID uuid.UUID, username string) (token string, exp time.Time, err error)
	VerifyAccess(token string) (claims AccessClaims, err error)
	VerifyRefresh(token string) (claims RefreshClaims, err error)
}
