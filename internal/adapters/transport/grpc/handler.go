package grpc

import (
	"context"
	"time"

	authv1 "github.com/Miraines/MoonyAndStarry/session-service/api/auth/v1"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/app/auth/guard"
	appsvc "github.com/Miraines/MoonyAndStarry/session-service/internal/app/auth/service"
	customErrors "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/model"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const Version = "v1.0.0"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	authv1.UnimplementedAuthServer
	svc    appsvc.Service
	guard  *guard.Guard
	log    *zap.Logger
	checks map[string]Pinger
}

func NewHandler(svc appsvc.Service, g *guard.Guard, log *zap.Logger, checks map[string]Pinger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		svc:    svc,
		guard:  g,
		log:    log,
		checks: checks,
	}
}

func toAccount(p model.Principal) *authv1.Account {
	return &authv1.Account{
		Id:        p.ID.String(),
		Username:  p.Username,
		Email:     p.Email,
		Roles:     p.Roles,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt.Unix(),
		UpdatedAt: p.UpdatedAt.Unix(),
	}
}

// authorization returns the bearer token from call metadata, if any.
func authorization(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// accessToken prefers metadata over the request field.
func accessToken(ctx context.Context, field string) string {
	if t, ok := guard.BearerToken(authorization(ctx)); ok {
		return t
	}
	return field
}

func (h *Handler) Register(ctx context.Context, req *authv1.RegisterRequest) (*authv1.RegisterResponse, error) {
	p, err := h.svc.Register(ctx, dto.RegisterDTO{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Roles:    req.Roles,
	})
	if err != nil {
		return nil, h.mapError(err)
	}
	return &authv1.RegisterResponse{Account: toAccount(p)}, nil
}

func (h *Handler) Login(ctx context.Context, req *authv1.LoginRequest) (*authv1.LoginResponse, error) {
	pair, err := h.svc.Login(ctx, dto.LoginDTO{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return nil, h.mapError(err)
	}

	return &authv1.LoginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		AccessTtl:    int64(pair.AccessTTL.Seconds()),
		RefreshTtl:   int64(pair.RefreshTTL.Seconds()),
		UserId:       pair.AccountID.String(),
	}, nil
}

func (h *Handler) Refresh(ctx context.Context, req *authv1.RefreshRequest) (*authv1.RefreshResponse, error) {
	raw, err := guard.RefreshToken(authorization(ctx), req.RefreshToken)
	if err != nil {
		return nil, h.mapError(err)
	}
	subject, err := h.guard.Refresh(raw)
	if err != nil {
		return nil, h.mapError(err)
	}
	pair, err := h.svc.Refresh(ctx, subject, raw)
	if err != nil {
		return nil, h.mapError(err)
	}

	return &authv1.RefreshResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		AccessTtl:    int64(pair.AccessTTL.Seconds()),
		RefreshTtl:   int64(pair.RefreshTTL.Seconds()),
		UserId:       pair.AccountID.String(),
	}, nil
}

func (h *Handler) Logout(ctx context.Context, req *authv1.LogoutRequest) (*authv1.LogoutResponse, error) {
	p, claims, err := h.guard.Access(ctx, accessToken(ctx, req.AccessToken))
	if err != nil {
		return nil, h.mapError(err)
	}
	if err := h.svc.Logout(ctx, p.ID); err != nil {
		return nil, h.mapError(err)
	}
	if err := h.guard.RevokeAccess(ctx, claims); err != nil {
		h.log.Error("denylist access token", zap.String("account_id", p.ID.String()), zap.Error(err))
	}
	return &authv1.LogoutResponse{Success: true}, nil
}

func (h *Handler) Validate(ctx context.Context, req *authv1.ValidateRequest) (*authv1.ValidateResponse, error) {
	p, _, err := h.guard.Access(ctx, accessToken(ctx, req.AccessToken))
	if err != nil {
		return nil, h.mapError(err)
	}

	return &authv1.ValidateResponse{
		UserId:    p.ID.String(),
		Username:  p.Username,
		Roles:     p.Roles,
		Timestamp: p.UpdatedAt.Unix(),
	}, nil
}

func (h *Handler) HealthCheck(ctx context.Context, _ *authv1.HealthCheckRequest) (*authv1.HealthCheckResponse, error) {
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			h.log.Warn("gRPC HealthCheck failed", zap.String("check", name), zap.Error(err))
			return &authv1.HealthCheckResponse{Status: authv1.HealthStatus_NOT_SERVING}, nil
		}
	}
	return &authv1.HealthCheckResponse{
		Status:    authv1.HealthStatus_SERVING,
		Version:   Version,
		Timestamp: time.Now().Unix(),
	}, nil
}

func (h *Handler) mapError(err error) error {
	switch {
	case errors.Is(err, customErrors.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, customErrors.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case errors.Is(err, customErrors.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "invalid token")
	case errors.Is(err, customErrors.ErrAccountInactive):
		return status.Error(codes.PermissionDenied, "account inactive")
	case errors.Is(err, customErrors.ErrSessionRevoked):
		return status.Error(codes.PermissionDenied, "session revoked")
	case errors.Is(err, customErrors.ErrForbidden):
		return status.Error(codes.PermissionDenied, "forbidden")
	case errors.Is(err, customErrors.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, customErrors.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		h.log.Error("gRPC internal error", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}
