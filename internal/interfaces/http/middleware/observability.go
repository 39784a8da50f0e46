package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fraudguard/fraudguard/internal/infrastructure/monitoring"
	"github.com/fraudguard/fraudguard/pkg/constants"
	"github.com/fraudguard/fraudguard/pkg/logger"
)

// Observability wires a trace span, the HTTP Prometheus metrics and a
// request log line around every request. The trace identifier is stashed in
// the request context so downstream log entries and API envelopes carry it.
func Observability(tracing *monitoring.TracingManager, metrics *monitoring.Metrics, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		ctx, span := tracing.StartSpan(c.Request.Context(), c.Request.Method+" "+c.FullPath())
		defer span.End()

		traceID := tracing.GetTraceID(ctx)
		if traceID == "" {
			traceID = uuid.NewString()
		}
		ctx = context.WithValue(ctx, constants.ContextKeyTraceID, traceID)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Trace-ID", traceID)

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		// Route template keeps the metric label cardinality bounded.
		path := c.FullPath()
		if path == "" {
			path = "not_found"
		}

		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(status), duration)
		span.SetAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.path", path),
			attribute.Int("http.status_code", status),
			attribute.String("http.client_ip", c.ClientIP()),
		)

		log.Info(ctx, "request completed", logger.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"latency_ms": duration.Milliseconds(),
			"client_ip":  c.ClientIP(),
		})
	}
}

// Recovery converts panics into a 500 without killing the worker.
func Recovery(log logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error(c.Request.Context(), "panic recovered", nil, logger.Fields{
			"panic": recovered,
			"path":  c.Request.URL.Path,
		})
		c.AbortWithStatus(500)
	})
}
