package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "me-profile/metrics"

// Metrics groups all metric instruments in one place.
type Metrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	UpstreamDuration metric.Float64Histogram
	UpstreamRequests metric.Int64Counter

	RateLimitDecisions metric.Int64Counter

	// Inflight is exported as an observable gauge per endpoint.
	inflight sync.Map // map[string]*atomic.Int64
}

// NewMetrics creates all instruments and registers callbacks.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{}
	meter := otel.Meter(meterName)

	var err error

	m.HTTPRequestsTotal, err = meter.Int64Counter("http_requests_total")
	if err != nil {
		return nil, err
	}
	m.HTTPRequestDuration, err = meter.Float64Histogram("http_request_duration_ms")
	if err != nil {
		return nil, err
	}

	m.UpstreamDuration, err = meter.Float64Histogram("upstream_duration_ms",
		metric.WithDescription("Latency of the fact API call"),
	)
	if err != nil {
		return nil, err
	}
	m.UpstreamRequests, err = meter.Int64Counter("upstream_requests_total",
		metric.WithDescription("Fact API calls by outcome"),
	)
	if err != nil {
		return nil, err
	}

	m.RateLimitDecisions, err = meter.Int64Counter("ratelimit_decisions_total")
	if err != nil {
		return nil, err
	}

	// http_inflight gauge reports current in-flight requests per endpoint.
	_, err = meter.Int64ObservableGauge("http_inflight",
		metric.WithInt64Callback(func(ctx context.Context, obs metric.Int64Observer) error {
			m.inflight.Range(func(k, v any) bool {
				endpoint := k.(string)
				val := v.(*atomic.Int64).Load()
				obs.Observe(val, metric.WithAttributes(attribute.String("endpoint", endpoint)))
				return true
			})
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// IncInflight increments the in-flight counter for an endpoint.
func (m *Metrics) IncInflight(endpoint string) {
	v, _ := m.inflight.LoadOrStore(endpoint, &atomic.Int64{})
	v.(*atomic.Int64).Add(1)
}

// DecInflight decrements the in-flight counter for an endpoint.
func (m *Metrics) DecInflight(endpoint string) {
	if v, ok := m.inflight.Load(endpoint); ok {
		v.(*atomic.Int64).Add(-1)
	}
}

// Inflight returns the current in-flight count for an endpoint.
func (m *Metrics) Inflight(endpoint string) int64 {
	if v, ok := m.inflight.Load(endpoint); ok {
		return v.(*atomic.Int64).Load()
	}
	return 0
}

// RecordUpstream records one fact API call. Safe on a nil receiver.
func (m *Metrics) RecordUpstream(ctx context.Context, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.UpstreamDuration.Record(ctx, float64(elapsed.Milliseconds()), attrs)
	m.UpstreamRequests.Add(ctx, 1, attrs)
}

// RecordRateLimit records one limiter decision. Safe on a nil receiver.
func (m *Metrics) RecordRateLimit(ctx context.Context, endpoint string, allowed bool) {
	if m == nil {
		return
	}
	decision := "denied"
	if allowed {
		decision = "allowed"
	}
	m.RateLimitDecisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("decision", decision),
	))
}
