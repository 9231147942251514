package dto

// RegisterDTO leaves Roles nil for the default; an explicit empty list is
// rejected.
type RegisterDTO struct {
	Username string   `json:"username" validate:"required,min=4,max=20"`
	Password string   `json:"password" validate:"required,min=8"`
	Email    string   `json:"email"    validate:"omitempty,email,max=50"`
	Roles    []string `json:"roles"    validate:"omitempty,min=1,dive,oneof=USER OPERATOR AUDITOR ADMIN"`
}

type LoginDTO struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshDTO is the body fallback; the bearer header wins when present.
type RefreshDTO struct {
	RefreshToken string `json:"refreshToken"`
}

type StatusDTO struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type TokenPairDTO struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	UserID       string `json:"userId"`
}
