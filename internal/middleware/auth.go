package middleware

import (
	stderrors "errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/charlesng35/metastore-admin/internal/auth"
	"github.com/charlesng35/metastore-admin/pkg/errors"
	"github.com/charlesng35/metastore-admin/pkg/logger"
	"github.com/charlesng35/metastore-admin/pkg/response"
)

const (
	CtxClaimsKey   = "authClaims"
	CtxUsernameKey = "username"
)

// AdminAuth requires a bearer token carrying the admin claim. A nil service
// leaves the routes open.
func AdminAuth(jwt *iauth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if jwt == nil {
			c.Next()
			return
		}

		authz := c.GetHeader("Authorization")
		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := jwt.ValidateAdminToken(strings.TrimSpace(authz[7:]))
		if err != nil {
			if stderrors.Is(err, iauth.ErrNotAdmin) {
				response.Error(c, errors.ErrForbidden)
				c.Abort()
				return
			}
			logger.WithModule("http").Debug("rejected admin token", zap.Error(err))
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUsernameKey, claims.Username)
		c.Next()
	}
}

// Actor returns the authenticated username, or "anonymous" on open routes.
func Actor(c *gin.Context) string {
	if username := c.GetString(CtxUsernameKey); username != "" {
		return username
	}
	return "anonymous"
}
