package respond

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload interface{}) {
	JSON(c, http.StatusOK, payload)
}

// Created writes a 201 with a user-facing message and the created resource under key.
func Created(c *gin.Context, message, key string, resource interface{}) {
	JSON(c, http.StatusCreated, gin.H{"message": message, key: resource})
}

// NoContent writes an empty 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// RetryAfter sets the Retry-After header in whole seconds, minimum one.
func RetryAfter(c *gin.Context, wait time.Duration) {
	secs := int((wait + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	c.Header("Retry-After", strconv.Itoa(secs))
}
