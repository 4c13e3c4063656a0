// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/storefront/internal/domain/user"
	"github.com/your-org/storefront/internal/pkg/apperror"
	"github.com/your-org/storefront/internal/pkg/auth"
)

const identityKey = "identity"

// IdentityResolver validates bearer tokens and loads the caller behind them
type IdentityResolver interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
	ResolveIdentity(ctx context.Context, userID uint) (user.Identity, error)
}

// AuthMiddleware authenticates the bearer token and stores the resolved identity.
// The account is reloaded on every request so deactivation and role changes apply at once.
func AuthMiddleware(resolver IdentityResolver, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			return
		}

		tokenString := auth.ExtractTokenFromHeader(authHeader)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format",
			})
			return
		}

		claims, err := resolver.ValidateAccessToken(tokenString)
		if err != nil {
			abortWithError(c, log, err)
			return
		}

		identity, err := resolver.ResolveIdentity(c.Request.Context(), claims.UserID)
		if err != nil {
			abortWithError(c, log, err)
			return
		}

		c.Set(identityKey, identity)
		c.Set("user_id", identity.PublicID)
		c.Next()
	}
}

// abortWithError hides the cause of server-side failures from the client
func abortWithError(c *gin.Context, log logrus.FieldLogger, err error) {
	status := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).Error("Failed to authenticate request")
		c.AbortWithStatusJSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// AdminMiddleware ensures the caller holds the admin role
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			return
		}

		if !identity.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Admin access required",
			})
			return
		}

		c.Next()
	}
}

// GetIdentity returns the caller stored by AuthMiddleware
func GetIdentity(c *gin.Context) (user.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return user.Identity{}, false
	}
	identity, ok := value.(user.Identity)
	return identity, ok
}
