package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/retailhub/retailhub/internal/shared/constants"
)

// RequestID keeps an inbound X-Request-ID or assigns a fresh one, and echoes
// it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.HeaderXRequestID)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		c.Set(constants.ContextKeyRequestID, requestID)
		c.Header(constants.HeaderXRequestID, requestID)
		c.Next()
	}
}

// RequestIDFrom returns the id RequestID assigned, generating one for
// routes mounted without that middleware.
func RequestIDFrom(c *gin.Context) string {
	if id := c.GetString(constants.ContextKeyRequestID); id != "" {
		return id
	}
	requestID := c.GetHeader(constants.HeaderXRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(constants.ContextKeyRequestID, requestID)
	return requestID
}
