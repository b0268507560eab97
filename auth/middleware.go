package auth

import (
	"diskuss/errors"

	"github.com/gin-gonic/gin"
)

const (
	userIDContextKey   = "auth_user_id"
	usernameContextKey = "auth_username"
)

// Middleware validates the bearer token of incoming HTTP requests and
// attaches the authenticated identity to the gin context. Any token
// failure aborts the request as unauthenticated.
func Middleware(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := issuer.Verify(c.GetHeader("Authorization"))
		if err != nil {
			failure := errors.ToFailure(err)
			c.AbortWithStatusJSON(failure.Code, failure)
			return
		}
		c.Set(userIDContextKey, claims.UserID)
		c.Set(usernameContextKey, claims.Username)
		c.Next()
	}
}

// UserIDFromContext retrieves the authenticated user id set by Middleware.
func UserIDFromContext(c *gin.Context) (string, bool) {
	val, ok := c.Get(userIDContextKey)
	if !ok {
		return "", false
	}
	userID, ok := val.(string)
	return userID, ok
}
