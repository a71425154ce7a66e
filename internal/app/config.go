// Package app wires the service together: config, storage, transport and
// background workers.
package app

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// StorageDriver selects the order store backend.
type StorageDriver string

const (
	StorageDriverMemory   StorageDriver = "memory"
	StorageDriverPostgres StorageDriver = "postgres"
)

// Config holds the runtime settings of the service.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	StorageDriver       StorageDriver
	PostgresDSN         string
	PostgresAutoMigrate bool

	KafkaBrokers string
	KafkaTopic   string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	TokenTTL    time.Duration

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration

	// SeedAdminEmail/SeedAdminPassword create a bootstrap admin account in
	// the in-memory directory. Ignored with the postgres driver, where
	// accounts are provisioned in the database.
	SeedAdminEmail    string
	SeedAdminPassword string
}

// DefaultConfig returns the local-development defaults.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",

		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,

		KafkaTopic: "",

		JWTIssuer:   "price-tagger",
		JWTAudience: "price-tagger-api",
		TokenTTL:    12 * time.Hour,

		OutboxPollInterval: time.Second,
		OutboxBatchSize:    100,
		OutboxMaxAttempts:  3,
		OutboxRetryDelay:   50 * time.Millisecond,
	}
}

// LoadConfig builds the config from defaults overridden by environment
// variables.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	cfg.HTTPAddr = envString("PRICETAGGER_HTTP_ADDR", cfg.HTTPAddr)
	cfg.MetricsAddr = envString("PRICETAGGER_METRICS_ADDR", cfg.MetricsAddr)

	cfg.StorageDriver = StorageDriver(envString("PRICETAGGER_STORAGE_DRIVER", string(cfg.StorageDriver)))
	cfg.PostgresDSN = envString("PRICETAGGER_POSTGRES_DSN", cfg.PostgresDSN)
	autoMigrate, err := envBool("PRICETAGGER_POSTGRES_AUTO_MIGRATE", cfg.PostgresAutoMigrate)
	if err != nil {
		return Config{}, err
	}
	cfg.PostgresAutoMigrate = autoMigrate

	cfg.KafkaBrokers = envString("PRICETAGGER_KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaTopic = envString("PRICETAGGER_KAFKA_TOPIC", cfg.KafkaTopic)

	cfg.JWTSecret = envString("PRICETAGGER_JWT_SECRET", cfg.JWTSecret)
	cfg.JWTIssuer = envString("PRICETAGGER_JWT_ISSUER", cfg.JWTIssuer)
	cfg.JWTAudience = envString("PRICETAGGER_JWT_AUDIENCE", cfg.JWTAudience)
	tokenTTL, err := envDuration("PRICETAGGER_TOKEN_TTL", cfg.TokenTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.TokenTTL = tokenTTL

	pollInterval, err := envDuration("PRICETAGGER_OUTBOX_POLL_INTERVAL", cfg.OutboxPollInterval)
	if err != nil {
		return Config{}, err
	}
	cfg.OutboxPollInterval = pollInterval

	batchSize, err := envInt("PRICETAGGER_OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	if err != nil {
		return Config{}, err
	}
	cfg.OutboxBatchSize = batchSize

	maxAttempts, err := envInt("PRICETAGGER_OUTBOX_MAX_ATTEMPTS", cfg.OutboxMaxAttempts)
	if err != nil {
		return Config{}, err
	}
	cfg.OutboxMaxAttempts = maxAttempts

	retryDelay, err := envDuration("PRICETAGGER_OUTBOX_RETRY_DELAY", cfg.OutboxRetryDelay)
	if err != nil {
		return Config{}, err
	}
	cfg.OutboxRetryDelay = retryDelay

	cfg.SeedAdminEmail = envString("PRICETAGGER_SEED_ADMIN_EMAIL", cfg.SeedAdminEmail)
	cfg.SeedAdminPassword = envString("PRICETAGGER_SEED_ADMIN_PASSWORD", cfg.SeedAdminPassword)

	return cfg, cfg.Validate()
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres storage driver requires PRICETAGGER_POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unsupported storage driver: %s", c.StorageDriver)
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("PRICETAGGER_JWT_SECRET must be set")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}

	return nil
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}

func envInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}
