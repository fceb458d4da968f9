package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"me-profile/internal/models"
	"me-profile/internal/observability"
	"me-profile/internal/ratelimit"
)

// KeyFunc extracts the rate limit key from a request.
type KeyFunc func(r *http.Request) string

// ClientKey keys requests by the caller's address. With trustXFF the first
// X-Forwarded-For entry wins; otherwise only the connection's remote address is used.
func ClientKey(trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if trustXFF {
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
		}

		addr := strings.TrimSpace(r.RemoteAddr)
		if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
			return host
		}
		if addr != "" {
			return addr
		}
		return "unknown"
	}
}

// RateLimit rejects requests over the store's budget with 429 and the error
// envelope. Store failures admit the request.
func RateLimit(store ratelimit.Store, keyFn KeyFunc, m *observability.Metrics, endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := keyFn(c.Request)

		dec, err := store.Take(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, "rate limit store unavailable, admitting request",
				slog.String("endpoint", endpoint),
				slog.String("client", key),
				slog.String("error", err.Error()),
			)
			c.Next()
			return
		}
		m.RecordRateLimit(ctx, endpoint, dec.Allowed)

		resetSeconds := strconv.Itoa(int(math.Ceil(dec.ResetAfter.Seconds())))
		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(dec.Limit.Count))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(dec.Remaining))
		h.Set("X-RateLimit-Reset", resetSeconds)

		if !dec.Allowed {
			h.Set("Retry-After", resetSeconds)
			slog.InfoContext(ctx, "rate limit exceeded",
				slog.String("endpoint", endpoint),
				slog.String("client", key),
				slog.String("limit", dec.Limit.String()),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				models.NewErrorResponse("Rate limit exceeded: "+dec.Limit.String()))
			return
		}

		c.Next()
	}
}
