package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"me-profile/internal/models"
	"me-profile/internal/observability"
)

const maxFactBody = 1 << 20

// Outcome classifies a single fact API call.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeTimeout
	OutcomeNetworkError
	OutcomeHTTPError
	OutcomeUnexpected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeNetworkError:
		return "network_error"
	case OutcomeHTTPError:
		return "http_error"
	default:
		return "unexpected"
	}
}

// FactResult is the outcome of one fact API call.
// Fact is only meaningful for OutcomeSuccess; StatusCode is set whenever a response was received.
type FactResult struct {
	Outcome    Outcome
	Fact       string
	StatusCode int
	Err        error
}

// FactClient fetches a random fact from the configured upstream.
type FactClient struct {
	url     string
	timeout time.Duration
	client  *http.Client
	metrics *observability.Metrics
}

type FactClientOption func(*FactClient)

// WithMetrics records call duration and outcome.
func WithMetrics(m *observability.Metrics) FactClientOption {
	return func(c *FactClient) { c.metrics = m }
}

// WithTransport replaces the base transport. The otel wrapper is still applied.
func WithTransport(rt http.RoundTripper) FactClientOption {
	return func(c *FactClient) { c.client.Transport = otelhttp.NewTransport(rt) }
}

// NewFactClient creates a client bounded by connectTimeout for dialing and TLS
// and by timeout for the whole exchange, body included.
func NewFactClient(url string, timeout, connectTimeout time.Duration, opts ...FactClientOption) *FactClient {
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.DialContext = (&net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	base.TLSHandshakeTimeout = connectTimeout

	c := &FactClient{
		url:     url,
		timeout: timeout,
		client: &http.Client{
			Transport: otelhttp.NewTransport(base),
			// Redirects are reported as non-2xx responses, not followed.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch performs one GET against the fact API. It never retries and never
// returns a Go error; every failure is folded into the result's Outcome.
func (c *FactClient) Fetch(ctx context.Context) FactResult {
	tr := otel.Tracer("me-profile/services")
	ctx, span := tr.Start(ctx, "FactClient.Fetch")
	defer span.End()

	start := time.Now()
	res := c.fetch(ctx)

	span.SetAttributes(attribute.String("fact.outcome", res.Outcome.String()))
	if res.StatusCode != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", res.StatusCode))
	}
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Outcome.String())
	}
	c.metrics.RecordUpstream(ctx, res.Outcome.String(), time.Since(start))

	return res
}

func (c *FactClient) fetch(ctx context.Context) FactResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return FactResult{Outcome: OutcomeUnexpected, Err: err}
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return transportFailure(err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxFactBody))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return FactResult{
			Outcome:    OutcomeHTTPError,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("fact api responded %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFactBody))
	if err != nil {
		res := transportFailure(err)
		res.StatusCode = resp.StatusCode
		return res
	}

	fact, err := decodeFact(body)
	if err != nil {
		return FactResult{Outcome: OutcomeUnexpected, StatusCode: resp.StatusCode, Err: err}
	}
	return FactResult{Outcome: OutcomeSuccess, Fact: fact, StatusCode: resp.StatusCode}
}

// decodeFact requires a JSON object. A missing "fact" key yields the fallback;
// a present but non-string value is an error.
func decodeFact(body []byte) (string, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode fact body: %w", err)
	}
	if payload == nil {
		return "", errors.New("decode fact body: not a JSON object")
	}

	raw, ok := payload["fact"]
	if !ok {
		return models.FallbackFact, nil
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", errors.New("decode fact body: fact is null")
	}

	var fact string
	if err := json.Unmarshal(raw, &fact); err != nil {
		return "", fmt.Errorf("decode fact field: %w", err)
	}
	return fact, nil
}

func transportFailure(err error) FactResult {
	if isTimeout(err) {
		return FactResult{Outcome: OutcomeTimeout, Err: err}
	}
	return FactResult{Outcome: OutcomeNetworkError, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
