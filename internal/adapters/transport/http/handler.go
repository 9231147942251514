package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/transport/http/middleware"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/app/auth/guard"
	appsvc "github.com/Miraines/MoonyAndStarry/session-service/internal/app/auth/service"
	customErrors "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/model"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// Pinger is a dependency the health endpoint checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	svc    appsvc.Service
	guard  *guard.Guard
	v      *validator.Validate
	log    *zap.Logger
	checks map[string]Pinger
}

func NewHandler(svc appsvc.Service, g *guard.Guard, v *validator.Validate, log *zap.Logger, checks map[string]Pinger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, guard: g, v: v, log: log, checks: checks}
}

func pairDTO(pair model.TokenPair) dto.TokenPairDTO {
	return dto.TokenPairDTO{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    int(pair.AccessTTL.Seconds()),
		UserID:       pair.AccountID.String(),
	}
}

func (h *Handler) register(c *gin.Context) {
	var body dto.RegisterDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}
	p, err := h.svc.Register(c.Request.Context(), body)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// createAccount is the admin path for provisioning privileged accounts.
func (h *Handler) createAccount(c *gin.Context) {
	var body dto.RegisterDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}
	p, err := h.svc.CreateAccount(c.Request.Context(), body)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) login(c *gin.Context) {
	var body dto.LoginDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}
	pair, err := h.svc.Login(c.Request.Context(), body)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, pairDTO(pair))
}

func (h *Handler) refresh(c *gin.Context) {
	// The body is optional when the token travels in the header.
	var body dto.RefreshDTO
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		handleError(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}

	raw, err := guard.RefreshToken(c.GetHeader("Authorization"), body.RefreshToken)
	if err != nil {
		handleError(c, err)
		return
	}
	subject, err := h.guard.Refresh(raw)
	if err != nil {
		handleError(c, err)
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), subject, raw)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, pairDTO(pair))
}

func (h *Handler) logout(c *gin.Context) {
	p, _ := middleware.Principal(c)
	if err := h.svc.Logout(c.Request.Context(), p.ID); err != nil {
		handleError(c, err)
		return
	}
	// The session is already cleared. A denylist failure only leaves the
	// access token usable until it expires.
	if claims, ok := middleware.Claims(c); ok {
		if err := h.guard.RevokeAccess(c.Request.Context(), claims); err != nil {
			h.log.Error("denylist access token", zap.String("account_id", p.ID.String()), zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) me(c *gin.Context) {
	p, _ := middleware.Principal(c)
	profile, err := h.svc.Profile(c.Request.Context(), p.ID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) setStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handleError(c, customErrors.NewInvalidArgument("bad account id"))
		return
	}
	var body dto.StatusDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}
	if err := h.v.Struct(body); err != nil {
		handleError(c, customErrors.NewInvalidArgument(err.Error()))
		return
	}

	p, err := h.svc.SetActive(c.Request.Context(), id, *body.IsActive)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	code, state := http.StatusOK, "ok"
	checks := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			h.log.Warn("health check failed", zap.String("check", name), zap.Error(err))
			checks[name] = "error"
			code, state = http.StatusServiceUnavailable, "degraded"
			continue
		}
		checks[name] = "ok"
	}
	c.JSON(code, gin.H{"status": state, "checks": checks, "time": time.Now().Unix()})
}
