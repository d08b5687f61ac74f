package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/app"
	"github.com/vladislavdragonenkov/storefront/internal/tracing"
)

const (
	envHTTPAddr            = "STOREFRONT_HTTP_ADDR"
	envGRPCAddr            = "STOREFRONT_GRPC_ADDR"
	envMetricsAddr         = "STOREFRONT_METRICS_ADDR"
	envStorageDriver       = "STOREFRONT_STORAGE_DRIVER"
	envPostgresDSN         = "STOREFRONT_POSTGRES_DSN"
	envPostgresAutoMigrate = "STOREFRONT_POSTGRES_AUTO_MIGRATE"
	envKafkaBrokers        = "KAFKA_BROKERS"

	envOutboxPollInterval = "STOREFRONT_OUTBOX_POLL_INTERVAL"
	envOutboxBatchSize    = "STOREFRONT_OUTBOX_BATCH_SIZE"
	envOutboxMaxAttempts  = "STOREFRONT_OUTBOX_MAX_ATTEMPTS"
	envOutboxRetryDelay   = "STOREFRONT_OUTBOX_RETRY_DELAY"
	envOutboxMaxPending   = "STOREFRONT_OUTBOX_MAX_PENDING"
	envOutboxSentTTL      = "STOREFRONT_OUTBOX_SENT_TTL"

	envSnapshotTTL        = "STOREFRONT_SNAPSHOT_TTL"
	envRetentionInterval  = "STOREFRONT_RETENTION_INTERVAL"
	envRetentionBatchSize = "STOREFRONT_RETENTION_BATCH_SIZE"

	envCatalogSeed         = "STOREFRONT_CATALOG_SEED"
	envCompareLimit        = "STOREFRONT_COMPARE_LIMIT"
	envAnalyticsBufferSize = "STOREFRONT_ANALYTICS_BUFFER_SIZE"
	envTracing             = "STOREFRONT_TRACING"
	envShutdownTimeout     = "STOREFRONT_SHUTDOWN_TIMEOUT"

	envLogLevel = "LOG_LEVEL"
)

type envLookup func(string) (string, bool)

// readConfig собирает конфигурацию из окружения процесса.
func readConfig() (app.Config, []string) {
	return readConfigFromEnv(os.LookupEnv)
}

// readConfigFromEnv накладывает переменные окружения на DefaultConfig.
// Некорректные значения не валят запуск: остаётся значение по умолчанию и возвращается предупреждение.
func readConfigFromEnv(lookup envLookup) (app.Config, []string) {
	cfg := app.DefaultConfig()
	var warnings []string

	warn := func(key, raw string, err error) {
		warnings = append(warnings, fmt.Sprintf("%s=%q: %v, using default", key, raw, err))
	}

	setString := func(key string, target *string) {
		if v, ok := lookup(key); ok {
			if v = strings.TrimSpace(v); v != "" {
				*target = v
			}
		}
	}

	setBool := func(key string, target *bool) {
		raw, ok := lookup(key)
		if !ok || strings.TrimSpace(raw) == "" {
			return
		}
		value, err := parseBool(raw)
		if err != nil {
			warn(key, raw, err)
			return
		}
		*target = value
	}

	setInt := func(key string, target *int, validate func(int) bool, msg string) {
		raw, ok := lookup(key)
		if !ok || strings.TrimSpace(raw) == "" {
			return
		}
		value, err := parseInt(raw, validate, msg)
		if err != nil {
			warn(key, raw, err)
			return
		}
		*target = value
	}

	setDuration := func(key string, target *time.Duration, validate func(time.Duration) bool, msg string) {
		raw, ok := lookup(key)
		if !ok || strings.TrimSpace(raw) == "" {
			return
		}
		value, err := parseDuration(raw, validate, msg)
		if err != nil {
			warn(key, raw, err)
			return
		}
		*target = value
	}

	positive := func(v int) bool { return v > 0 }
	nonNegative := func(v int) bool { return v >= 0 }
	positiveDuration := func(v time.Duration) bool { return v > 0 }
	nonNegativeDuration := func(v time.Duration) bool { return v >= 0 }

	setString(envHTTPAddr, &cfg.HTTPAddr)
	setString(envGRPCAddr, &cfg.GRPCAddr)
	setString(envMetricsAddr, &cfg.MetricsAddr)

	if raw, ok := lookup(envStorageDriver); ok {
		if driver := strings.ToLower(strings.TrimSpace(raw)); driver != "" {
			cfg.StorageDriver = driver
		}
	}
	setString(envPostgresDSN, &cfg.PostgresDSN)
	setBool(envPostgresAutoMigrate, &cfg.PostgresAutoMigrate)
	setString(envKafkaBrokers, &cfg.KafkaBrokers)

	setDuration(envOutboxPollInterval, &cfg.OutboxPollInterval, positiveDuration, "must be > 0")
	setInt(envOutboxBatchSize, &cfg.OutboxBatchSize, positive, "must be > 0")
	setInt(envOutboxMaxAttempts, &cfg.OutboxMaxAttempts, positive, "must be > 0")
	setDuration(envOutboxRetryDelay, &cfg.OutboxRetryDelay, nonNegativeDuration, "must be >= 0")
	setInt(envOutboxMaxPending, &cfg.OutboxMaxPending, nonNegative, "must be >= 0")
	setDuration(envOutboxSentTTL, &cfg.OutboxSentTTL, nonNegativeDuration, "must be >= 0")

	setDuration(envSnapshotTTL, &cfg.SnapshotTTL, positiveDuration, "must be > 0")
	setDuration(envRetentionInterval, &cfg.RetentionInterval, positiveDuration, "must be > 0")
	setInt(envRetentionBatchSize, &cfg.RetentionBatchSize, positive, "must be > 0")

	setString(envCatalogSeed, &cfg.CatalogSeedPath)
	setInt(envCompareLimit, &cfg.CompareLimit, positive, "must be > 0")
	setInt(envAnalyticsBufferSize, &cfg.AnalyticsBufferSize, positive, "must be > 0")
	setDuration(envShutdownTimeout, &cfg.ShutdownTimeout, positiveDuration, "must be > 0")

	if raw, ok := lookup(envTracing); ok {
		mode, err := tracing.ParseMode(raw)
		if err != nil {
			warn(envTracing, raw, err)
		} else {
			cfg.TracingMode = mode
		}
	}

	return cfg, warnings
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	default:
		return false, errors.New("invalid boolean value")
	}
}

func parseInt(raw string, validate func(int) bool, msg string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %w", err)
	}
	if validate != nil && !validate(value) {
		return 0, errors.New(msg)
	}
	return value, nil
}

func parseDuration(raw string, validate func(time.Duration) bool, msg string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %w", err)
	}
	if validate != nil && !validate(value) {
		return 0, errors.New(msg)
	}
	return value, nil
}
