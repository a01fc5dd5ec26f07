package middleware

import (
	"time"

	"expenses/internal/log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger attaches a request-scoped logger to the request context and
// logs one line per request once the handler chain has run.
func RequestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		reqLogger := logger.With("request_id", requestID)
		c.Request = c.Request.WithContext(log.NewContext(c.Request.Context(), reqLogger))

		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}
		if id, ok := UserID(c); ok {
			attrs = append(attrs, "user_id", id)
		}
		ctx := c.Request.Context()
		switch {
		case c.Writer.Status() >= 500:
			reqLogger.ErrorContext(ctx, "request", attrs...)
		case c.Writer.Status() >= 400:
			reqLogger.WarnContext(ctx, "request", attrs...)
		default:
			reqLogger.InfoContext(ctx, "request", attrs...)
		}
	}
}
