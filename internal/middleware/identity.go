package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"linkly-be/internal/entities"
	"linkly-be/internal/service"
)

const (
	// ContextUserKey is the gin context key holding the authenticated user
	ContextUserKey = "user"
	// ContextSessionKey is the gin context key holding the session ID
	ContextSessionKey = "sessionID"
)

// Fingerprint derives an anonymous caller identity from the client IP and
// user agent. Collisions behind shared NATs are accepted.
func Fingerprint(c *gin.Context) string {
	sum := sha256.Sum256([]byte(GetIP(c) + c.GetHeader("User-Agent")))
	return hex.EncodeToString(sum[:])
}

// SessionID extracts the bearer token from the Authorization header
func SessionID(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return strings.TrimSpace(header)
}

// OptionalSession resolves the bearer session if one is presented and stores
// the user in the context. Anonymous requests pass through untouched; an
// invalid or expired session is treated as anonymous rather than rejected.
func OptionalSession(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sessionID := SessionID(c); sessionID != "" {
			if user, err := auth.GetUserBySession(sessionID); err == nil {
				c.Set(ContextUserKey, user)
				c.Set(ContextSessionKey, sessionID)
			}
		}
		c.Next()
	}
}

// RequireSession rejects requests without a valid bearer session
func RequireSession(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := SessionID(c)
		if sessionID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		user, err := auth.GetUserBySession(sessionID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session"})
			c.Abort()
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextSessionKey, sessionID)
		c.Next()
	}
}

// CurrentUser returns the authenticated user from the context, or nil
func CurrentUser(c *gin.Context) *entities.User {
	if v, ok := c.Get(ContextUserKey); ok {
		if user, ok := v.(*entities.User); ok {
			return user
		}
	}
	return nil
}
