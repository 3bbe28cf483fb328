package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/antonpme/CV-Optimizer/internal/shared/server/respond"
)

const userIDKey = "userId"

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// AuthConfig controls identity extraction.
type AuthConfig struct {
	// Secret verifies HS256 bearer tokens.
	Secret string
	// AllowHeaderIdentity accepts X-User-Id when no bearer token is sent. Dev only.
	AllowHeaderIdentity bool
}

// Auth verifies the bearer token issued by the identity provider and stores the
// subject as the user id.
func Auth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			sub, err := VerifyToken(token, cfg.Secret)
			if err != nil {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
				return
			}
			c.Set(userIDKey, sub)
			c.Next()
			return
		}

		if cfg.AllowHeaderIdentity {
			if id := strings.TrimSpace(c.GetHeader("X-User-Id")); id != "" {
				c.Set(userIDKey, id)
				c.Next()
				return
			}
		}
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
	}
}

// VerifyToken checks an HS256 token and returns its sub claim.
func VerifyToken(token, secret string) (string, error) {
	if token == "" || secret == "" {
		return "", ErrInvalidToken
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil || strings.TrimSpace(sub) == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
