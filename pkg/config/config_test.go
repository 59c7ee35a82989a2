package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		StorageBackend:        StorageMemory,
		MongoURI:              DefaultMongoURI,
		MongoDatabaseName:     DefaultMongoDatabaseName,
		MongoConnTimeout:      DefaultMongoConnTimeout,
		Port:                  DefaultPort,
		RateLimitRequests:     DefaultRateLimitRequests,
		RateLimitWindow:       DefaultRateLimitWindow,
		RequestTimeout:        DefaultRequestTimeout,
		IdempotencyTTL:        DefaultIdempotencyTTL,
		MaxRequestSize:        DefaultMaxRequestSize,
		ReadTimeout:           DefaultReadTimeout,
		WriteTimeout:          DefaultWriteTimeout,
		IdleTimeout:           DefaultIdleTimeout,
		ShutdownTimeout:       DefaultShutdownTimeout,
		CommissionRate:        DefaultCommissionRate,
		MarketplaceAPIURL:     DefaultMarketplaceAPIURL,
		MarketplaceAPITimeout: DefaultMarketplaceAPITimeout,
		SessionTTL:            DefaultSessionTTL,
	}
}

func TestValidate_Defaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"bad port", func(c *Config) { c.Port = "70000" }, "Port must be between"},
		{"bad backend", func(c *Config) { c.StorageBackend = "sqlite" }, "StorageBackend must be one of"},
		{"mongo uri", func(c *Config) { c.StorageBackend = StorageMongo; c.MongoURI = "postgres://x" }, "MongoURI must start with"},
		{"commission rate", func(c *Config) { c.CommissionRate = 1.5 }, "CommissionRate must be in"},
		{"negative commission", func(c *Config) { c.CommissionRate = -0.1 }, "CommissionRate must be in"},
		{"api url", func(c *Config) { c.MarketplaceAPIURL = "localhost:5000" }, "MarketplaceAPIURL must be"},
		{"session ttl", func(c *Config) { c.SessionTTL = 0 }, "SessionTTL must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestValidate_NumbersEveryError(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "0"
	cfg.ReadTimeout = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "1. ") || !strings.Contains(err.Error(), "2. ") {
		t.Errorf("expected numbered errors, got: %v", err)
	}
}

func TestMemoryBackendIgnoresMongoURI(t *testing.T) {
	cfg := validConfig()
	cfg.MongoURI = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("memory backend should not require a mongo uri: %v", err)
	}
}

func TestRedactMongoURI(t *testing.T) {
	got := redactMongoURI("mongodb://admin:s3cret@db:27017")
	if strings.Contains(got, "s3cret") {
		t.Errorf("password leaked: %s", got)
	}
}

func TestGetEnvFloat(t *testing.T) {
	t.Setenv(EnvCommissionRate, "0.15")
	if got := getEnvFloat(EnvCommissionRate, DefaultCommissionRate); got != 0.15 {
		t.Errorf("getEnvFloat = %v, want 0.15", got)
	}
	t.Setenv(EnvCommissionRate, "ten percent")
	if got := getEnvFloat(EnvCommissionRate, DefaultCommissionRate); got != DefaultCommissionRate {
		t.Errorf("getEnvFloat fallback = %v", got)
	}
}

func TestNormalizePaginationLimit(t *testing.T) {
	if NormalizePaginationLimit(0) != 10 {
		t.Error("zero limit should default to 10")
	}
	if NormalizePaginationLimit(1000) != DefaultPaginationLimit {
		t.Error("limit should be capped")
	}
	if NormalizeOffset(-4) != 0 {
		t.Error("negative offset should clamp to zero")
	}
}
