package middleware

import (
	"github.com/gin-gonic/gin" // Gin web framework
	"github.com/google/uuid"   // UUID generation
)

// ContextRequestIDKey is the gin context key holding the request id
const ContextRequestIDKey = "requestID"

// RequestID tags every request with a uuid, echoed in the X-Request-ID
// response header and attached to log entries for write operations
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID") // Honor an id supplied by the client
		if id == "" {
			id = uuid.New().String() // Otherwise mint a fresh one
		}
		c.Set(ContextRequestIDKey, id)            // Store the id in context
		c.Writer.Header().Set("X-Request-ID", id) // Echo it back
		c.Next()                                  // Proceed to the next handler
	}
}

// GetRequestID returns the request id from the gin context
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextRequestIDKey)
}
