// Package authv1 declares the auth.v1.Auth gRPC service. Messages travel
// as JSON through the codec registered in codec.go, not protobuf.
//
// Calls must use the "application/grpc+json" content type. NewAuthClient
// selects it on every call; other Go clients pass
// grpc.CallContentSubtype(authv1.CodecName) and import this package so the
// codec is registered. Clients in other languages need an equivalent JSON
// codec.
package authv1

type HealthStatus int32

const (
	HealthStatus_UNKNOWN HealthStatus = iota
	HealthStatus_SERVING
	HealthStatus_NOT_SERVING
)

func (s HealthStatus) String() string {
	switch s {
	case HealthStatus_SERVING:
		return "SERVING"
	case HealthStatus_NOT_SERVING:
		return "NOT_SERVING"
	default:
		return "UNKNOWN"
	}
}

type Account struct {
	Id        string   `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email,omitempty"`
	Roles     []string `json:"roles"`
	IsActive  bool     `json:"isActive"`
	CreatedAt int64    `json:"createdAt"`
	UpdatedAt int64    `json:"updatedAt"`
}

type RegisterRequest struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

type RegisterResponse struct {
	Account *Account `json:"account"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	AccessTtl    int64  `json:"accessTtl"`
	RefreshTtl   int64  `json:"refreshTtl"`
	UserId       string `json:"userId"`
}

// RefreshRequest.RefreshToken is used only when the call carries no
// "authorization" metadata.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

type RefreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	AccessTtl    int64  `json:"accessTtl"`
	RefreshTtl   int64  `json:"refreshTtl"`
	UserId       string `json:"userId"`
}

type LogoutRequest struct {
	AccessToken string `json:"accessToken,omitempty"`
}

type LogoutResponse struct {
	Success bool `json:"success"`
}

type ValidateRequest struct {
	AccessToken string `json:"accessToken,omitempty"`
}

type ValidateResponse struct {
	UserId    string   `json:"userId"`
	Username  string   `json:"username"`
	Roles     []string `json:"roles"`
	Timestamp int64    `json:"timestamp"`
}

type HealthCheckRequest struct{}

type HealthCheckResponse struct {
	Status    HealthStatus `json:"status"`
	Version   string       `json:"version"`
	Timestamp int64        `json:"timestamp"`
}
