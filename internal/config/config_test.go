package config

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func baseEnv() map[string]string {
	return map[string]string{
		"EMAIL": "dev@example.com",
		"NAME":  "Dev",
		"STACK": "Go/Gin",
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(lookupFrom(baseEnv()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Profile != (Profile{Email: "dev@example.com", Name: "Dev", Stack: "Go/Gin"}) {
		t.Errorf("profile = %+v", cfg.Profile)
	}
	if cfg.FactsURL != DefaultFactsURL {
		t.Errorf("FactsURL = %q, want %q", cfg.FactsURL, DefaultFactsURL)
	}
	if got := cfg.Addr(); got != "0.0.0.0:8000" {
		t.Errorf("Addr() = %q, want 0.0.0.0:8000", got)
	}
	if cfg.UpstreamTimeout != 5*time.Second || cfg.UpstreamConnectTimeout != 5*time.Second {
		t.Errorf("timeouts = %v/%v, want 5s/5s", cfg.UpstreamTimeout, cfg.UpstreamConnectTimeout)
	}
	if cfg.RateLimit != "5/minute" {
		t.Errorf("RateLimit = %q", cfg.RateLimit)
	}
	if cfg.RateLimitStrategy != "fixed-window" {
		t.Errorf("RateLimitStrategy = %q", cfg.RateLimitStrategy)
	}
	if cfg.RateLimitStorageURI != "memory://" {
		t.Errorf("RateLimitStorageURI = %q", cfg.RateLimitStorageURI)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if cfg.OtelEndpoint != "" {
		t.Errorf("OtelEndpoint = %q, want empty", cfg.OtelEndpoint)
	}
}

func TestFromEnv_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		drop    []string
		wantErr []error
	}{
		{name: "email", drop: []string{"EMAIL"}, wantErr: []error{ErrEmailMissing}},
		{name: "name", drop: []string{"NAME"}, wantErr: []error{ErrNameMissing}},
		{name: "stack", drop: []string{"STACK"}, wantErr: []error{ErrStackMissing}},
		{
			name:    "all",
			drop:    []string{"EMAIL", "NAME", "STACK"},
			wantErr: []error{ErrEmailMissing, ErrNameMissing, ErrStackMissing},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := baseEnv()
			for _, k := range tt.drop {
				delete(env, k)
			}

			_, err := FromEnv(lookupFrom(env))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			for _, want := range tt.wantErr {
				if !errors.Is(err, want) {
					t.Errorf("error %q does not wrap %q", err, want)
				}
			}
		})
	}
}

func TestFromEnv_BlankRequiredIsMissing(t *testing.T) {
	env := baseEnv()
	env["STACK"] = "   "

	if _, err := FromEnv(lookupFrom(env)); !errors.Is(err, ErrStackMissing) {
		t.Fatalf("expected ErrStackMissing, got %v", err)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	env := baseEnv()
	env["CAT_FACTS_API_URL"] = "http://facts.internal/fact"
	env["HOST"] = "127.0.0.1"
	env["PORT"] = "9090"
	env["UPSTREAM_TIMEOUT_MS"] = "1500"
	env["UPSTREAM_CONNECT_TIMEOUT_MS"] = "250"
	env["RATE_LIMIT"] = "10/second"
	env["RATE_LIMIT_STRATEGY"] = "Token-Bucket"
	env["RATE_LIMIT_STORAGE_URI"] = "redis://localhost:6379/1"
	env["TRUST_FORWARDED_FOR"] = "true"
	env["CORS_ALLOW_ORIGINS"] = "https://a.example, https://b.example"
	env["LOG_LEVEL"] = "debug"
	env["OTEL_TRACES_EXPORTER"] = "none"

	cfg, err := FromEnv(lookupFrom(env))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.FactsURL != "http://facts.internal/fact" {
		t.Errorf("FactsURL = %q", cfg.FactsURL)
	}
	if cfg.Addr() != "127.0.0.1:9090" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
	if cfg.UpstreamTimeout != 1500*time.Millisecond {
		t.Errorf("UpstreamTimeout = %v", cfg.UpstreamTimeout)
	}
	if cfg.UpstreamConnectTimeout != 250*time.Millisecond {
		t.Errorf("UpstreamConnectTimeout = %v", cfg.UpstreamConnectTimeout)
	}
	if cfg.RateLimitStrategy != "token-bucket" {
		t.Errorf("RateLimitStrategy = %q", cfg.RateLimitStrategy)
	}
	if !cfg.TrustForwardedFor {
		t.Error("TrustForwardedFor = false, want true")
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if !cfg.DisableTraces {
		t.Error("DisableTraces = false, want true")
	}
}

func TestFromEnv_InvalidOptionalValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "relative facts url", key: "CAT_FACTS_API_URL", val: "/fact"},
		{name: "ftp facts url", key: "CAT_FACTS_API_URL", val: "ftp://facts.example/fact"},
		{name: "timeout not a number", key: "UPSTREAM_TIMEOUT_MS", val: "soon"},
		{name: "zero connect timeout", key: "UPSTREAM_CONNECT_TIMEOUT_MS", val: "0"},
		{name: "unknown strategy", key: "RATE_LIMIT_STRATEGY", val: "leaky-bucket"},
		{name: "bad bool", key: "TRUST_FORWARDED_FOR", val: "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := baseEnv()
			env[tt.key] = tt.val
			if _, err := FromEnv(lookupFrom(env)); err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.val)
			}
		})
	}
}
