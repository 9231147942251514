package model

import (
	"github.com/google/uuid"
	"time"
)

const (
	RoleUser     = "USER"
	RoleOperator = "OPERATOR"
	RoleAuditor  = "AUDITOR"
	RoleAdmin    = "ADMIN"
)

// DefaultRoles is assigned when registration supplies none.
var DefaultRoles = []string{RoleUser}

type Account struct {
	ID                      uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username                string    `gorm:"uniqueIndex;not null"`
	PasswordHash            string    `gorm:"not null" json:"-"`
	Roles                   []string  `gorm:"serializer:json;not null"`
	Email                   *string   `gorm:"uniqueIndex"`
	IsActive                bool      `gorm:"not null"`
	CurrentRefreshTokenHash string    `gorm:"not null;default:''" json:"-"`
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

func (Account) TableName() string { return "accounts" }

// HasSession reports whether the refresh slot is populated.
func (a Account) HasSession() bool { return a.CurrentRefreshTokenHash != "" }

// Principal returns the account view that is safe to hand to callers.
func (a Account) Principal() Principal {
	roles := make([]string, len(a.Roles))
	copy(roles, a.Roles)
	var email string
	if a.Email != nil {
		email = *a.Email
	}
	return Principal{
		ID:        a.ID,
		Username:  a.Username,
		Email:     email,
		Roles:     roles,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type Principal struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	Roles     []string  `json:"roles"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	AccountID    uuid.UUID
}
