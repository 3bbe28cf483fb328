package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var corsStaticHeaders = map[string]string{
	"Vary":                             "Origin",
	"Access-Control-Allow-Credentials": "true",
	"Access-Control-Allow-Methods":     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	"Access-Control-Allow-Headers":     "Content-Type, Authorization, X-User-Id, X-Request-Id",
	"Access-Control-Max-Age":           "600",
	// Retry-After carries the wait on 429s; Content-Disposition names exports.
	"Access-Control-Expose-Headers": "X-Request-Id, Retry-After, Content-Disposition",
}

// CORS echoes allowed origins and short-circuits every preflight with 204.
// The origin "*" allows any origin when running locally.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	origins := make(map[string]struct{}, len(allowedOrigins))
	anyOrigin := false
	for _, o := range allowedOrigins {
		switch trimmed := strings.TrimSpace(o); trimmed {
		case "":
		case "*":
			anyOrigin = true
		default:
			origins[strings.TrimRight(trimmed, "/")] = struct{}{}
		}
	}
	allowed := func(origin string) bool {
		if anyOrigin {
			return true
		}
		_, ok := origins[origin]
		return ok
	}

	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" && allowed(origin) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			for k, v := range corsStaticHeaders {
				h.Set(k, v)
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
