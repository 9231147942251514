package middleware

import (
	"net/http"

	"github.com/Miraines/MoonyAndStarry/session-service/internal/app/auth/guard"
	customErrors "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/jwt"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/model"
	"github.com/gin-gonic/gin"
)

const (
	principalKey = "auth.principal"
	claimsKey    = "auth.claims"
)

// RequireAccess rejects requests without a live access token and stores
// the resolved principal and claims on the context.
func RequireAccess(g *guard.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, _ := guard.BearerToken(c.GetHeader("Authorization"))
		p, claims, err := g.Access(c.Request.Context(), raw)
		if err != nil {
			if customErrors.IsInvalidToken(err) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.Set(principalKey, p)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole must run after RequireAccess.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := Principal(c)
		if !ok || !p.HasRole(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func Principal(c *gin.Context) (*model.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*model.Principal)
	return p, ok && p != nil
}

func Claims(c *gin.Context) (jwt.AccessClaims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return jwt.AccessClaims{}, false
	}
	claims, ok := v.(jwt.AccessClaims)
	return claims, ok
}
