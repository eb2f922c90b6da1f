package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the gin context key under which the request ID is stored.
const RequestIDKey = "request_id"

// RequestID ensures every request carries a unique identifier: it
// reuses an incoming X-Request-ID header if it is 1 to 64 bytes long
// (its content is not otherwise checked), otherwise generates a new UUID. The ID is echoed back on the response
// and stored in the gin context for handlers/middleware to log against.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if l := len(requestID); l < 1 || l > 64 {
			requestID = uuid.New().String()
		}

		c.Header("X-Request-ID", requestID)
		c.Set(RequestIDKey, requestID)
		c.Next()
	}
}

// GetRequestID retrieves the request ID from the gin context, or "" if absent.
func GetRequestID(c *gin.Context) string {
	if v, ok := c.Get(RequestIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
