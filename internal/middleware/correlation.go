// Package middleware holds cross-cutting gin middleware shared by the
// signaling process's HTTP surface.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/corsairlabs/meetcore/internal/logging"
)

// HeaderXCorrelationID is the header this service reads/sets for request
// correlation across logs.
const HeaderXCorrelationID = "X-Correlation-ID"

// CorrelationID reads an inbound correlation id or mints one, threading it
// through the response header and the request's logging context.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(HeaderXCorrelationID)
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		c.Header(HeaderXCorrelationID, correlationID)
		ctx := logging.WithCorrelationID(c.Request.Context(), correlationID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(string(logging.CorrelationIDKey), correlationID)
		c.Next()
	}
}
