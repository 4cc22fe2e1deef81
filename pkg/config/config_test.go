package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		MongoURI:           DefaultMongoURI,
		MongoDatabaseName:  DefaultMongoDatabaseName,
		MongoConnTimeout:   DefaultMongoConnTimeout,
		Port:               DefaultPort,
		RateLimitRequests:  DefaultRateLimitRequests,
		RateLimitWindow:    DefaultRateLimitWindow,
		RequestTimeout:     DefaultRequestTimeout,
		IdempotencyTTL:     DefaultIdempotencyTTL,
		MaxRequestSize:     DefaultMaxRequestSize,
		ReadTimeout:        DefaultReadTimeout,
		WriteTimeout:       DefaultWriteTimeout,
		IdleTimeout:        DefaultIdleTimeout,
		ShutdownTimeout:    DefaultShutdownTimeout,
		ProviderTimezone:   DefaultProviderTimezone,
		DefaultStartOfDay:  DefaultDefaultStartOfDay,
		DefaultEndOfDay:    DefaultDefaultEndOfDay,
		TemplateCacheSize:  DefaultTemplateCacheSize,
		TemplateCacheTTL:   DefaultTemplateCacheTTL,
		SideEffectTimeout:  DefaultSideEffectTimeout,
		MaxReplacements:    DefaultMaxReplacements,
		NotificationsTopic: DefaultNotificationsTopic,
		NotificationsSink:  DefaultNotificationsSink,
		LockBackend:        DefaultLockBackend,
		LockTTL:            DefaultLockTTL,
		LockWait:           DefaultLockWait,
		RedisAddr:          DefaultRedisAddr,
		SMTPPort:           DefaultSMTPPort,
	}
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate, got: %v", err)
	}
	if cfg.Location != time.UTC {
		t.Errorf("expected Location to resolve to UTC, got %v", cfg.Location)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.Port = "0" }, "Port must be between"},
		{"start of day", func(c *Config) { c.DefaultStartOfDay = "9:00" }, "DefaultStartOfDay must be in HH:MM"},
		{"day order", func(c *Config) { c.DefaultEndOfDay = "08:00" }, "must be after DefaultStartOfDay"},
		{"timezone", func(c *Config) { c.ProviderTimezone = "Mars/Olympus" }, "ProviderTimezone must be a valid IANA zone"},
		{"mongo scheme", func(c *Config) { c.MongoURI = "postgres://localhost" }, "MongoURI must start with"},
		{"lock backend", func(c *Config) { c.LockBackend = "etcd" }, "LockBackend must be one of"},
		{"redis addr", func(c *Config) { c.LockBackend = LockBackendRedis; c.RedisAddr = "" }, "RedisAddr cannot be empty"},
		{"sink", func(c *Config) { c.NotificationsSink = "sns" }, "NotificationsSink must be one of"},
		{"kafka topic", func(c *Config) { c.NotificationsSink = SinkKafka; c.NotificationsTopic = "" }, "NotificationsTopic cannot be empty"},
		{"lock ttl", func(c *Config) { c.LockTTL = c.RequestTimeout }, "LockTTL (30s) must be greater than RequestTimeout (30s)"},
		{"request timeout", func(c *Config) { c.RequestTimeout = 2 * time.Minute }, "must be greater than RequestTimeout"},
		{"replacements", func(c *Config) { c.MaxReplacements = 0 }, "MaxReplacements must be positive"},
		{"side effects", func(c *Config) { c.SideEffectTimeout = 0 }, "SideEffectTimeout must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error to contain %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "abc"
	cfg.MongoDatabaseName = ""
	cfg.LockWait = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"1. Port", "2. MongoDatabaseName", "3. LockWait"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in:\n%v", want, err)
		}
	}
}

func TestRedactMongoURI(t *testing.T) {
	got := redactMongoURI("mongodb://admin:secret@db:27017/masterbook")
	if strings.Contains(got, "secret") || !strings.Contains(got, "***:***@db") {
		t.Errorf("credentials not redacted: %s", got)
	}
}

func TestNormalizePaginationLimit(t *testing.T) {
	tests := []struct{ in, want int }{{0, 10}, {-3, 10}, {25, 25}, {500, DefaultPaginationLimit}}
	for _, tt := range tests {
		if got := NormalizePaginationLimit(tt.in); got != tt.want {
			t.Errorf("NormalizePaginationLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
