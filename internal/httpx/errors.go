package httpx

import "github.com/gin-gonic/gin"

// HTTPError represents a standard error in JSON.
// swagger:model
type HTTPError struct {
	// Error message
	// example: not found
	Error string `json:"error"`
	// Per-field messages for validation failures
	Fields map[string]string `json:"fields,omitempty"`
}

func Abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, HTTPError{Error: msg})
}

func AbortFields(c *gin.Context, status int, msg string, fields map[string]string) {
	c.AbortWithStatusJSON(status, HTTPError{Error: msg, Fields: fields})
}
