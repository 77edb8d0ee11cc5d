package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"heritage-platform/internal/models"
	"heritage-platform/internal/token"
)

// ctxUserKey is the context key RequireAuth stores the resolved user under.
const ctxUserKey = "currentUser"

// UserResolver looks up the account a token's claims point at. The
// store satisfies it; tests substitute a stub.
type UserResolver interface {
	GetUserByID(ctx context.Context, id int64) (models.User, error)
}

// ExtractToken reads the session token from the Authorization header
// (Bearer scheme), falling back to the 'token' cookie.
func ExtractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	if cookie, err := c.Cookie("token"); err == nil {
		return cookie
	}
	return ""
}

// RequireAuth authenticates the request: extract token, verify it,
// resolve the user. Each failure aborts with its own 401 message.
func RequireAuth(tokens *token.Service, users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := ExtractToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Please sign in",
			})
			return
		}

		claims, err := tokens.Verify(c.Request.Context(), raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Your session has expired, please sign in again",
			})
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), claims.UserID)
		if err != nil {
			log.Debug().Int64("user_id", claims.UserID).Err(err).Msg("token resolved to no user")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "User not found",
			})
			return
		}

		c.Set(ctxUserKey, user)
		c.Next()
	}
}

// RequireRole gates a route on a minimum role in the order
// user < admin < superuser. It must run after RequireAuth; without a
// resolved user it answers 401, not 403.
func RequireRole(min models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Please sign in",
			})
			return
		}

		if !user.Role.AtLeast(min) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "You do not have permission to perform this action",
			})
			return
		}

		c.Next()
	}
}

// CurrentUser returns the authenticated user attached by RequireAuth.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, exists := c.Get(ctxUserKey)
	if !exists {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}
