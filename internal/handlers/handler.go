package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"me-profile/internal/models"
	"me-profile/internal/services"
)

//go:generate mockgen -source=handler.go -destination=mock_fact_fetcher_test.go -package=handlers

// FactFetcher retrieves one fact from the upstream API.
type FactFetcher interface {
	Fetch(ctx context.Context) services.FactResult
}

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	Profile models.User
	Facts   FactFetcher

	now func() time.Time
}

// New creates a new Handlers instance with dependencies injected.
func New(profile models.User, facts FactFetcher) *Handlers {
	return &Handlers{Profile: profile, Facts: facts, now: time.Now}
}

// Health is a simple liveness endpoint.
func (h *Handlers) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Me returns the static profile with a fresh fact. Each upstream outcome maps
// to exactly one response; error responses always carry the fallback fact.
func (h *Handlers) Me(c *gin.Context) {
	ctx := c.Request.Context()
	res := h.Facts.Fetch(ctx)

	switch res.Outcome {
	case services.OutcomeSuccess:
		slog.InfoContext(ctx, "fetched random cat fact", slog.String("fact", res.Fact))
		c.JSON(http.StatusOK, models.NewProfileResponse(h.Profile, h.now(), res.Fact))

	case services.OutcomeTimeout:
		respondErr(c, http.StatusGatewayTimeout, "Cat Facts API request timed out", "timeout error", res.Err)

	case services.OutcomeNetworkError:
		// Message wording is kept as published even though this is not a timeout.
		respondErr(c, http.StatusServiceUnavailable, "Cat Facts API timed out", "network error", res.Err)

	case services.OutcomeHTTPError:
		if res.StatusCode < 100 || res.StatusCode > 599 {
			respondErr(c, http.StatusInternalServerError, "An unexpected error occurred", "unexpected error", res.Err)
			return
		}
		respondErr(c, res.StatusCode, fmt.Sprintf("Cat Facts API returned %d", res.StatusCode), "http error", res.Err)

	default:
		respondErr(c, http.StatusInternalServerError, "An unexpected error occurred", "unexpected error", res.Err)
	}
}

func respondErr(c *gin.Context, status int, message, kind string, err error) {
	detail := "unknown"
	if err != nil {
		detail = err.Error()
	}
	slog.ErrorContext(c.Request.Context(), kind,
		slog.Int("status", status),
		slog.String("error", detail),
	)
	c.JSON(status, models.NewErrorResponse(message))
}
