package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultFactsURL = "https://catfact.ninja/fact"

var (
	ErrEmailMissing = errors.New("EMAIL is required")
	ErrNameMissing  = errors.New("NAME is required")
	ErrStackMissing = errors.New("STACK is required")
)

// Profile is the static identity returned by /me.
type Profile struct {
	Email string
	Name  string
	Stack string
}

// Config holds all runtime configuration for the application.
// It is built once at startup and never mutated afterwards.
type Config struct {
	Profile Profile

	Host     string
	Port     string
	FactsURL string

	UpstreamTimeout        time.Duration
	UpstreamConnectTimeout time.Duration

	RateLimit           string
	RateLimitStrategy   string
	RateLimitStorageURI string
	TrustForwardedFor   bool

	CORSOrigins []string
	LogLevel    slog.Level

	OtelEndpoint  string
	ServiceName   string
	DisableTraces bool
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Load reads a .env file when present, then environment variables, and returns a
// validated Config. Missing required values are reported together.
func Load() (Config, error) {
	// .env is optional; variables already set in the environment take precedence.
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from an arbitrary lookup function.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, def string) string {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			return def
		}
		return v
	}

	var errs []error

	cfg := Config{
		Profile: Profile{
			Email: get("EMAIL", ""),
			Name:  get("NAME", ""),
			Stack: get("STACK", ""),
		},
		Host:                get("HOST", "0.0.0.0"),
		Port:                get("PORT", "8000"),
		FactsURL:            get("CAT_FACTS_API_URL", DefaultFactsURL),
		RateLimit:           get("RATE_LIMIT", "5/minute"),
		RateLimitStrategy:   strings.ToLower(get("RATE_LIMIT_STRATEGY", "fixed-window")),
		RateLimitStorageURI: get("RATE_LIMIT_STORAGE_URI", "memory://"),
		CORSOrigins:         splitList(get("CORS_ALLOW_ORIGINS", "*")),
		LogLevel:            parseLogLevel(get("LOG_LEVEL", "info")),
		OtelEndpoint:        get("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:         get("OTEL_SERVICE_NAME", "me-profile"),
		DisableTraces:       get("OTEL_TRACES_EXPORTER", "") == "none",
	}

	if cfg.Profile.Email == "" {
		errs = append(errs, ErrEmailMissing)
	}
	if cfg.Profile.Name == "" {
		errs = append(errs, ErrNameMissing)
	}
	if cfg.Profile.Stack == "" {
		errs = append(errs, ErrStackMissing)
	}

	if u, err := url.Parse(cfg.FactsURL); err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		errs = append(errs, fmt.Errorf("CAT_FACTS_API_URL must be an absolute http(s) URL, got %q", cfg.FactsURL))
	}

	var err error
	if cfg.UpstreamTimeout, err = getMillis(get, "UPSTREAM_TIMEOUT_MS", 5*time.Second); err != nil {
		errs = append(errs, err)
	}
	if cfg.UpstreamConnectTimeout, err = getMillis(get, "UPSTREAM_CONNECT_TIMEOUT_MS", 5*time.Second); err != nil {
		errs = append(errs, err)
	}

	switch cfg.RateLimitStrategy {
	case "fixed-window", "token-bucket":
	default:
		errs = append(errs, fmt.Errorf("RATE_LIMIT_STRATEGY must be fixed-window or token-bucket, got %q", cfg.RateLimitStrategy))
	}

	if cfg.TrustForwardedFor, err = strconv.ParseBool(get("TRUST_FORWARDED_FOR", "false")); err != nil {
		errs = append(errs, fmt.Errorf("TRUST_FORWARDED_FOR: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getMillis(get func(string, string) string, key string, def time.Duration) (time.Duration, error) {
	raw := get(key, "")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return time.Duration(n) * time.Millisecond, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
