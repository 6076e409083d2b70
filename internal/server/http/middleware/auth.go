package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	pkgAuth "github.com/polkiloo/samplestore/internal/pkg/auth"
)

const (
	// AdminContextKey is a gin context key for the authenticated admin user.
	AdminContextKey = "admin"
	authCookieName  = "samplestore_admin"
)

// TokenParser resolves a session token to the admin user it was issued for.
type TokenParser interface {
	ParseToken(token string) (string, error)
}

// AdminRequired ensures the admin is authenticated before accessing handler.
func AdminRequired(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			abortJSON(c, http.StatusUnauthorized, "authentication required")
			return
		}

		user, err := parser.ParseToken(token)
		if err != nil {
			if errors.Is(err, pkgAuth.ErrInvalidToken) {
				abortJSON(c, http.StatusUnauthorized, "invalid session")
				return
			}
			abortJSON(c, http.StatusInternalServerError, "session check failed")
			return
		}

		c.Set(AdminContextKey, user)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}

	if cookie, err := c.Cookie(authCookieName); err == nil {
		return cookie
	}
	return ""
}

// SetAuthCookie writes the admin session cookie to response.
func SetAuthCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(authCookieName, token, 0, "/", "", c.Request != nil && c.Request.TLS != nil, true)
	c.Header("Authorization", "Bearer "+token)
}
