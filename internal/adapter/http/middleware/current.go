package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"todoapi/internal/adapter/http/helper"
	"todoapi/pkg"
	ct "todoapi/pkg/context"
)

const RequestIDHeader = "X-Request-ID"

// CurrentMiddleware assigns the request id, echoing a caller-supplied one, and
// attaches the per-request values to the request context.
func CurrentMiddleware(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)

		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.New().String()
		}

		current := ct.NewCurrent()
		current.Set(ct.RequestIDKey, requestID)
		current.Set(ct.UserAgentKey, c.Request.UserAgent())
		current.Set(ct.ClientIPKey, pkg.GetClientIP(c))

		c.Request = c.Request.WithContext(ct.WithCurrent(c.Request.Context(), current))
		c.Set("current", current)
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		helper.SetProduction(c, production)

		c.Next()
	}
}

func GetCurrent(c *gin.Context) *ct.Current {
	if current, ok := c.Get("current"); ok {
		if curr, ok := current.(*ct.Current); ok {
			return curr
		}
	}

	if current, ok := ct.FromContext(c.Request.Context()); ok {
		return current
	}

	return ct.NewCurrent()
}
