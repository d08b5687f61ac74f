package app

import (
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/analytics"
	"github.com/vladislavdragonenkov/storefront/internal/compare"
	"github.com/vladislavdragonenkov/storefront/internal/service/retention"
	"github.com/vladislavdragonenkov/storefront/internal/tracing"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска витрины.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool

	// KafkaBrokers — список брокеров через запятую; пусто — события только логируются.
	KafkaBrokers string

	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration
	// OutboxMaxPending — порог backlog, после которого /healthz показывает degraded; 0 отключает проверку.
	OutboxMaxPending int
	OutboxSentTTL    time.Duration

	SnapshotTTL        time.Duration
	RetentionInterval  time.Duration
	RetentionBatchSize int

	CatalogSeedPath     string
	CompareLimit        int
	AnalyticsBufferSize int

	TracingMode     tracing.Mode
	ShutdownTimeout time.Duration
}

// DefaultConfig возвращает конфигурацию для локального запуска без внешних зависимостей.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		GRPCAddr:            ":50051",
		MetricsAddr:         ":9090",
		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,
		OutboxPollInterval:  time.Second,
		OutboxBatchSize:     100,
		OutboxMaxAttempts:   3,
		OutboxRetryDelay:    50 * time.Millisecond,
		OutboxMaxPending:    1000,
		OutboxSentTTL:       24 * time.Hour,
		SnapshotTTL:         retention.DefaultSnapshotTTL,
		RetentionInterval:   retention.DefaultInterval,
		RetentionBatchSize:  500,
		CompareLimit:        compare.DefaultLimit,
		AnalyticsBufferSize: analytics.DefaultBufferSize,
		TracingMode:         tracing.ModeOff,
		ShutdownTimeout:     5 * time.Second,
	}
}
