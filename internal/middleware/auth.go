package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/hqvuong/work-order-api/internal/constants"
	apierrors "github.com/hqvuong/work-order-api/internal/errors"
	"github.com/hqvuong/work-order-api/internal/models"
	"github.com/hqvuong/work-order-api/internal/services"
)

// RequireAuth checks that the caller holds an authenticated session and
// places the principal (user id + role) into the request context.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get(constants.ContextKeyUserID)
		role := session.Get(constants.ContextKeyUserRole)

		if userID == nil || role == nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, userID)
		c.Set(constants.ContextKeyUserRole, role)
		c.Next()
	}
}

// RequireAdmin aborts the request unless the principal is an admin.
// It must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		if !p.IsAdmin() {
			apierrors.Forbidden(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetPrincipal retrieves the authenticated principal from context.
func GetPrincipal(c *gin.Context) (services.Principal, bool) {
	rawID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return services.Principal{}, false
	}
	rawRole, exists := c.Get(constants.ContextKeyUserRole)
	if !exists {
		return services.Principal{}, false
	}

	var userID uint64
	switch v := rawID.(type) {
	case uint64:
		userID = v
	case uint:
		userID = uint64(v)
	case int:
		if v < 0 {
			return services.Principal{}, false
		}
		userID = uint64(v)
	default:
		return services.Principal{}, false
	}

	role, ok := rawRole.(string)
	if !ok || !models.UserRole(role).Valid() {
		return services.Principal{}, false
	}

	return services.Principal{UserID: userID, Role: models.UserRole(role)}, true
}
