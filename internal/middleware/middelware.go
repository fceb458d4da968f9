package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"me-profile/internal/observability"
)

// Instrument wraps a handler with basic observability:
// - in-flight tracking
// - request counter
// - latency histogram
// - a server span continuing any incoming trace context
func Instrument(m *observability.Metrics, endpoint string, next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		m.IncInflight(endpoint)
		defer m.DecInflight(endpoint)

		tr := otel.Tracer("me-profile/http")
		ctx, span := tr.Start(ctx, c.Request.Method+" "+c.FullPath(), trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		next(c)
		elapsedMs := float64(time.Since(start).Milliseconds())

		code := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.response.status_code", code))

		attrs := metric.WithAttributes(
			attribute.String("endpoint", endpoint),
			attribute.String("status", strconv.Itoa(code)),
		)

		m.HTTPRequestsTotal.Add(ctx, 1, attrs)
		m.HTTPRequestDuration.Record(ctx, elapsedMs, attrs)
	}
}
