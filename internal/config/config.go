package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Environment names recognised by the loader.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
)

// Code shapes supported by the redemption code allocator.
const (
	CodeShapeNumeric      = "numeric"
	CodeShapeAlphanumeric = "alphanumeric"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	Environment string
	RunAddress  string
	DatabaseURI string
	RedisURL    string
	LogLevel    string

	GatewayBaseURL     string
	GatewayAccessToken string
	WebhookSecret      string
	// RelayToken authenticates the simplified relay payload via the x-relay-token header.
	RelayToken string
	// AllowUnsignedWebhooks lets webhooks through when no secret is configured or
	// the signature is missing. Rejected in production.
	AllowUnsignedWebhooks bool
	NotificationURL       string
	SiteURL               string

	AdminUser         string
	AdminPassword     string
	AdminPasswordHash string
	TokenSecret       string
	TokenTTL          time.Duration

	CodeShape         string
	CodeLength        int
	AllocatorAttempts int
	ConflictRetries   int
	LockTTL           time.Duration
	LockWait          time.Duration

	SampleTitle string
	SamplePrice string
	Timezone    string

	WebhookRateLimit float64
	WebhookBurst     int

	SweepInterval   time.Duration
	SweepMinAge     time.Duration
	SweepBatch      int
	WorkerPoolSize  int
	ShutdownTimeout time.Duration
}

const (
	defaultRunAddress        = ":8080"
	defaultGatewayBaseURL    = "https://api.mercadopago.com"
	defaultTokenSecret       = "change-me-in-production"
	defaultTokenTTL          = 12 * time.Hour
	defaultCodeLength        = 6
	defaultAllocatorAttempts = 10
	defaultConflictRetries   = 3
	defaultLockTTL           = 15 * time.Second
	defaultLockWait          = 5 * time.Second
	defaultSampleTitle       = "Amostra de cafe especial"
	defaultSamplePrice       = "19.90"
	defaultTimezone          = "America/Sao_Paulo"
	defaultWebhookRateLimit  = 20
	defaultWebhookBurst      = 40
	defaultSweepMinAge       = 15 * time.Minute
	defaultSweepBatch        = 32
	defaultWorkerPoolSize    = 4
	defaultShutdownTimeout   = 10 * time.Second
)

// Load parses configuration from flags and environment variables.
func Load() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

type envLookup func(string) (string, bool)

func load(args []string, lookup envLookup) (*Config, error) {
	cfg := &Config{
		Environment:           getString(lookup, "ENVIRONMENT", EnvProduction),
		RunAddress:            getString(lookup, "RUN_ADDRESS", defaultRunAddress),
		DatabaseURI:           getString(lookup, "DATABASE_URI", ""),
		RedisURL:              getString(lookup, "REDIS_URL", ""),
		LogLevel:              getString(lookup, "LOG_LEVEL", "info"),
		GatewayBaseURL:        getString(lookup, "GATEWAY_BASE_URL", defaultGatewayBaseURL),
		GatewayAccessToken:    getString(lookup, "GATEWAY_ACCESS_TOKEN", ""),
		WebhookSecret:         getString(lookup, "WEBHOOK_SECRET", ""),
		RelayToken:            getString(lookup, "RELAY_TOKEN", ""),
		AllowUnsignedWebhooks: getBool(lookup, "ALLOW_UNSIGNED_WEBHOOKS", false),
		NotificationURL:       getString(lookup, "NOTIFICATION_URL", ""),
		SiteURL:               getString(lookup, "SITE_URL", "http://localhost:3000"),
		AdminUser:             getString(lookup, "ADMIN_USER", ""),
		AdminPassword:         getString(lookup, "ADMIN_PASSWORD", ""),
		AdminPasswordHash:     getString(lookup, "ADMIN_PASSWORD_HASH", ""),
		TokenSecret:           getString(lookup, "TOKEN_SECRET", defaultTokenSecret),
		TokenTTL:              getDuration(lookup, "TOKEN_TTL", defaultTokenTTL),
		CodeShape:             getString(lookup, "CODE_SHAPE", CodeShapeNumeric),
		CodeLength:            getInt(lookup, "CODE_LENGTH", defaultCodeLength),
		AllocatorAttempts:     getInt(lookup, "ALLOCATOR_ATTEMPTS", defaultAllocatorAttempts),
		ConflictRetries:       getInt(lookup, "RECONCILE_CONFLICT_RETRIES", defaultConflictRetries),
		LockTTL:               getDuration(lookup, "LOCK_TTL", defaultLockTTL),
		LockWait:              getDuration(lookup, "LOCK_WAIT", defaultLockWait),
		SampleTitle:           getString(lookup, "SAMPLE_TITLE", defaultSampleTitle),
		SamplePrice:           getString(lookup, "SAMPLE_PRICE", defaultSamplePrice),
		Timezone:              getString(lookup, "TIMEZONE", defaultTimezone),
		WebhookRateLimit:      getFloat(lookup, "WEBHOOK_RATE_LIMIT", defaultWebhookRateLimit),
		WebhookBurst:          getInt(lookup, "WEBHOOK_BURST", defaultWebhookBurst),
		SweepInterval:         getDuration(lookup, "SWEEP_INTERVAL", 0),
		SweepMinAge:           getDuration(lookup, "SWEEP_MIN_AGE", defaultSweepMinAge),
		SweepBatch:            getInt(lookup, "SWEEP_BATCH_SIZE", defaultSweepBatch),
		WorkerPoolSize:        getInt(lookup, "WORKER_POOL_SIZE", defaultWorkerPoolSize),
		ShutdownTimeout:       getDuration(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
	}

	fs := flag.NewFlagSet("samplestore", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		sweepIntervalStr   = cfg.SweepInterval.String()
		shutdownTimeoutStr = cfg.ShutdownTimeout.String()
	)

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.RedisURL, "redis", cfg.RedisURL, "Redis URL for distributed locks and events")
	fs.StringVar(&cfg.GatewayBaseURL, "g", cfg.GatewayBaseURL, "Payment gateway base URL")
	fs.StringVar(&cfg.Environment, "env", cfg.Environment, "Deployment environment")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.BoolVar(&cfg.AllowUnsignedWebhooks, "allow-unsigned-webhooks", cfg.AllowUnsignedWebhooks, "Accept unsigned webhooks outside production")
	fs.IntVar(&cfg.WorkerPoolSize, "worker-pool", cfg.WorkerPoolSize, "Number of concurrent sweeper workers")
	fs.StringVar(&sweepIntervalStr, "sweep-interval", sweepIntervalStr, "Interval between pending sale sweeps, 0 disables")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.IntVar(&cfg.SweepBatch, "sweep-batch", cfg.SweepBatch, "Maximum sales per sweep")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error

	if cfg.SweepInterval, err = time.ParseDuration(sweepIntervalStr); err != nil {
		return nil, fmt.Errorf("invalid sweep interval: %w", err)
	}

	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	secrets := []struct {
		env    string
		target *string
	}{
		{"TOKEN_SECRET_FILE", &cfg.TokenSecret},
		{"WEBHOOK_SECRET_FILE", &cfg.WebhookSecret},
		{"RELAY_TOKEN_FILE", &cfg.RelayToken},
		{"GATEWAY_ACCESS_TOKEN_FILE", &cfg.GatewayAccessToken},
		{"ADMIN_PASSWORD_HASH_FILE", &cfg.AdminPasswordHash},
	}
	for _, s := range secrets {
		if path, ok := lookup(s.env); ok && path != "" {
			content, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", strings.ToLower(s.env), err)
			}
			*s.target = strings.TrimSpace(string(content))
		}
	}

	cfg.normalize()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) normalize() {
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
	if c.Environment == "" {
		c.Environment = EnvProduction
	}
	if c.CodeShape != CodeShapeAlphanumeric {
		c.CodeShape = CodeShapeNumeric
	}
	if c.CodeLength <= 0 {
		c.CodeLength = defaultCodeLength
	}
	if c.AllocatorAttempts <= 0 {
		c.AllocatorAttempts = defaultAllocatorAttempts
	}
	if c.ConflictRetries <= 0 {
		c.ConflictRetries = defaultConflictRetries
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaultLockTTL
	}
	if c.LockWait <= 0 {
		c.LockWait = defaultLockWait
	}
	if c.TokenTTL <= 0 {
		c.TokenTTL = defaultTokenTTL
	}
	if c.WebhookRateLimit <= 0 {
		c.WebhookRateLimit = defaultWebhookRateLimit
	}
	if c.WebhookBurst <= 0 {
		c.WebhookBurst = defaultWebhookBurst
	}
	if c.SweepInterval < 0 {
		c.SweepInterval = 0
	}
	if c.SweepMinAge <= 0 {
		c.SweepMinAge = defaultSweepMinAge
	}
	if c.SweepBatch <= 0 {
		c.SweepBatch = defaultSweepBatch
	}
	if c.WorkerPoolSize <= 0 {
		c.WorkerPoolSize = defaultWorkerPoolSize
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
}

func (c *Config) validate() error {
	if c.DatabaseURI == "" {
		return fmt.Errorf("database URI must be provided")
	}
	if c.GatewayBaseURL == "" {
		return fmt.Errorf("gateway base URL must be provided")
	}
	if c.IsProduction() && c.AllowUnsignedWebhooks {
		return fmt.Errorf("unsigned webhooks cannot be allowed in production")
	}
	if c.IsProduction() && c.WebhookSecret == "" {
		return fmt.Errorf("webhook secret must be provided in production")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}
	return nil
}

// IsProduction reports whether the service runs in the production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Location returns the business timezone used for reporting windows.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getString(lookup envLookup, key, def string) string {
	if v, ok := lookup(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(lookup envLookup, key string, def int) int {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(lookup envLookup, key string, def float64) float64 {
	if v, ok := lookup(key); ok && v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}

func getBool(lookup envLookup, key string, def bool) bool {
	if v, ok := lookup(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDuration(lookup envLookup, key string, def time.Duration) time.Duration {
	if v, ok := lookup(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
