package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/antonpme/CV-Optimizer/internal/shared/telemetry"
)

// Context keys handlers may set to enrich the request log.
const (
	LogKeyGeneratedCVID = "generatedCvId"
	LogKeySectionID     = "sectionId"
	LogKeyRunType       = "runType"
	LogKeyDenial        = "denialReason"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"user_id":     UserIDFromContext(c),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		for key, field := range map[string]string{
			LogKeyGeneratedCVID: "generated_cv_id",
			LogKeySectionID:     "section_id",
			LogKeyRunType:       "run_type",
			LogKeyDenial:        "denial_reason",
		} {
			if v := c.GetString(key); v != "" {
				fields[field] = v
			}
		}
		telemetry.Info("request.complete", fields)
	}
}
