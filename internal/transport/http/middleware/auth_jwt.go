package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wms-admin/internal/core/auth"
	"wms-admin/internal/tenancy"
	resp "wms-admin/internal/transport/http/response"
)

// AuthJWT validates the bearer token and stores the principal on the request
// context. Any failure is a 401.
func AuthJWT(j *auth.JWTer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if len(ah) < 7 || !strings.EqualFold(ah[:7], "Bearer ") {
			resp.Abort(c, http.StatusUnauthorized, "Authentication is required")
			return
		}
		claims, err := j.Parse(strings.TrimSpace(ah[7:]))
		if err != nil {
			resp.Abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		p := tenancy.Principal{
			UserID:    claims.Subject,
			Username:  claims.Username,
			TenantID:  claims.TenantID,
			Roles:     claims.Roles,
			RequestID: resp.TraceID(c),
		}
		c.Request = c.Request.WithContext(tenancy.WithPrincipal(c.Request.Context(), p))
		c.Next()
	}
}

// RequireRole rejects principals that carry none of the given roles in their token.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := tenancy.FromContext(c.Request.Context())
		if !ok {
			resp.Abort(c, http.StatusUnauthorized, "Authentication is required")
			return
		}
		for _, r := range roles {
			if p.HasRole(r) {
				c.Next()
				return
			}
		}
		resp.Abort(c, http.StatusForbidden, "You do not have permission to perform this action")
	}
}

// RequireTenant rejects principals whose token carries no usable tenant.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := tenancy.FromContext(c.Request.Context())
		if !ok {
			resp.Abort(c, http.StatusUnauthorized, "Authentication is required")
			return
		}
		if _, err := p.Scope(); err != nil {
			resp.Abort(c, http.StatusBadRequest, "A valid tenant is required for this operation")
			return
		}
		c.Next()
	}
}

// PermissionChecker answers whether a user holds resource:action.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID, resource, action string) (bool, error)
}

// RequirePermission resolves the caller's grants and rejects with 403 when
// resource:action is missing.
func RequirePermission(pc PermissionChecker, l *zap.Logger, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := tenancy.FromContext(c.Request.Context())
		if !ok {
			resp.Abort(c, http.StatusUnauthorized, "Authentication is required")
			return
		}
		allowed, err := pc.HasPermission(c.Request.Context(), p.UserID, resource, action)
		if err != nil {
			l.Error("permission check failed",
				zap.String("trace_id", resp.TraceID(c)),
				zap.String("user_id", p.UserID),
				zap.Error(err))
			resp.Abort(c, http.StatusInternalServerError, "")
			return
		}
		if !allowed {
			resp.Abort(c, http.StatusForbidden, "You do not have permission to perform this action")
			return
		}
		c.Next()
	}
}
