package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Minpi-0/Health-Tracker/internal/auth"

	"github.com/gin-gonic/gin"
)

// Constants for context keys
const (
	ContextUserIDKey    = "userID"
	ContextAnonymousKey = "userAnonymous"
)

// AuthMiddleware creates a Gin middleware validating the bearer session
// token and exposing the user identity to downstream handlers.
func AuthMiddleware(authService auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		// Expecting "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			abortWithError(c, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
			return
		}

		user, err := authService.VerifySession(parts[1])
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "Invalid or expired session token")
			return
		}

		c.Set(ContextUserIDKey, user.ID)
		c.Set(ContextAnonymousKey, user.Anonymous)
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// Helper function to get User ID from context (used by handlers)
func getUserIDFromContext(c *gin.Context) (string, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", errors.New("user ID not found in context")
	}
	idStr, ok := idRaw.(string)
	if !ok {
		return "", errors.New("invalid user ID type in context")
	}
	return idStr, nil
}
