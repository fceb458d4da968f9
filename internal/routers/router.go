package routers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"me-profile/internal/handlers"
	"me-profile/internal/middleware"
	"me-profile/internal/models"
	"me-profile/internal/observability"
	"me-profile/internal/ratelimit"
)

// Options carries the router's cross-cutting settings.
type Options struct {
	CORSOrigins []string
	Limiter     ratelimit.Store
	KeyFunc     middleware.KeyFunc
}

// NewRouter registers all endpoints and applies per-endpoint instrumentation.
// Only /me is rate limited.
func NewRouter(m *observability.Metrics, h *handlers.Handlers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, err any) {
		slog.ErrorContext(c.Request.Context(), "unexpected error", slog.Any("panic", err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.NewErrorResponse("An unexpected error occurred"))
	}))
	r.Use(corsMiddleware(opts.CORSOrigins))
	r.Use(middleware.AccessLog("/health"))

	r.GET("/health", h.Health)

	keyFn := opts.KeyFunc
	if keyFn == nil {
		keyFn = middleware.ClientKey(false)
	}

	me := []gin.HandlerFunc{}
	if opts.Limiter != nil {
		me = append(me, middleware.RateLimit(opts.Limiter, keyFn, m, "me"))
	}
	me = append(me, middleware.Instrument(m, "me", h.Me))
	r.GET("/me", me...)

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet},
		AllowHeaders:  []string{"*"},
		ExposeHeaders: []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
