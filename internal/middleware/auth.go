package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mirelhas/task-docs-api/internal/auth"
	"github.com/mirelhas/task-docs-api/internal/constants"
	"github.com/mirelhas/task-docs-api/internal/database"
	apierrors "github.com/mirelhas/task-docs-api/internal/errors"
	"github.com/mirelhas/task-docs-api/internal/models"
)

// RequireAuth validates the bearer token and loads the current user into the
// request context. The user is fetched fresh so role changes and deletions
// take effect immediately, not at token expiry.
func RequireAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var user models.User
		if err := database.GetDB().First(&user, claims.UserID).Error; err != nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, user.ID)
		c.Set(constants.ContextKeyUser, &user)
		c.Next()
	}
}

// RequireAdmin rejects requests from non-admin users. Must run after
// RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := GetCurrentUser(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		if !user.IsAdmin() {
			apierrors.Forbidden(c, "Admin access required")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetCurrentUser retrieves the authenticated user from context
func GetCurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil, false
	}

	user, ok := value.(*models.User)
	if !ok {
		return nil, false
	}
	return user, true
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	user, exists := GetCurrentUser(c)
	if !exists {
		return 0, false
	}
	return user.ID, true
}
