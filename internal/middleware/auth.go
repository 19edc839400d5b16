package middleware

import (
	"net/http"
	"strings"

	"sociallogin/internal/auth"

	"github.com/gin-gonic/gin"
)

const (
	userIDKey = "user_id"
	claimsKey = "claims"
)

// Auth is a middleware to protect routes that require a session token.
// The token is read from "Authorization: Bearer <token>".
func Auth(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, tokenString, found := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := issuer.Parse(strings.TrimSpace(tokenString))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token validation failed: " + err.Error()})
			return
		}

		c.Set(userIDKey, claims.UserID())
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// UserID returns the authenticated user id set by Auth, or "".
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
