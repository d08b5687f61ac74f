package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/storage/postgres"
)

const (
	envKafkaBrokers = "KAFKA_BROKERS"
	envPostgresDSN  = "STOREFRONT_POSTGRES_DSN"
	envGroupID      = "STOREFRONT_SINK_GROUP"
	envMetricsAddr  = "STOREFRONT_SINK_METRICS_ADDR"
	envMaxRetries   = "STOREFRONT_SINK_MAX_RETRIES"

	defaultGroupID     = "storefront-analytics-sink"
	defaultMetricsAddr = ":9091"
	defaultMaxRetries  = 3
	shutdownTimeout    = 5 * time.Second
)

type config struct {
	brokers     []string
	dsn         string
	groupID     string
	metricsAddr string
	maxRetries  int
}

func readConfig(lookup func(string) string) (config, error) {
	cfg := config{
		groupID:     defaultGroupID,
		metricsAddr: defaultMetricsAddr,
		maxRetries:  defaultMaxRetries,
	}

	for _, b := range strings.Split(lookup(envKafkaBrokers), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.brokers = append(cfg.brokers, b)
		}
	}
	if len(cfg.brokers) == 0 {
		return config{}, fmt.Errorf("%s is required", envKafkaBrokers)
	}

	cfg.dsn = strings.TrimSpace(lookup(envPostgresDSN))
	if cfg.dsn == "" {
		return config{}, fmt.Errorf("%s is required", envPostgresDSN)
	}

	if v := strings.TrimSpace(lookup(envGroupID)); v != "" {
		cfg.groupID = v
	}
	if v := strings.TrimSpace(lookup(envMetricsAddr)); v != "" {
		cfg.metricsAddr = v
	}
	if v := strings.TrimSpace(lookup(envMaxRetries)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return config{}, fmt.Errorf("%s must be a positive integer, got %q", envMaxRetries, v)
		}
		cfg.maxRetries = n
	}
	return cfg, nil
}

func run(ctx context.Context, cfg config, logger *log.Entry) error {
	store, err := postgres.Open(ctx, cfg.dsn)
	if err != nil {
		return fmt.Errorf("open postgres store: %w", err)
	}
	defer store.Close()

	if err := store.MigrateUp(ctx, 0); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	dlq, err := kafka.NewProducer(cfg.brokers, logger)
	if err != nil {
		return fmt.Errorf("create dlq producer: %w", err)
	}
	defer func() {
		if err := dlq.Close(); err != nil {
			logger.WithError(err).Warn("failed to close dlq producer")
		}
	}()

	handler := kafka.NewAnalyticsSinkHandler(
		postgres.NewAnalyticsEventRepository(store),
		metrics.NewAnalyticsMetrics(),
		logger,
	)
	consumer, err := kafka.NewConsumer(kafka.ConsumerOptions{
		Brokers:     cfg.brokers,
		GroupID:     cfg.groupID,
		Topics:      []string{kafka.TopicAnalyticsEvents},
		DLQProducer: dlq,
		MaxRetries:  cfg.maxRetries,
		RetryDelay:  100 * time.Millisecond,
		Logger:      logger,
	}, handler)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{Addr: cfg.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		if err := consumer.Start(groupCtx); err != nil {
			return err
		}
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("metrics server shutdown failed")
		}
		return consumer.Stop()
	})

	if err := group.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if level, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	}
	logger := log.WithField("service", "analytics-sink")

	cfg, err := readConfig(os.Getenv)
	if err != nil {
		logger.WithError(err).Fatal("некорректная конфигурация")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithFields(log.Fields{
		"brokers":      cfg.brokers,
		"group":        cfg.groupID,
		"metrics_addr": cfg.metricsAddr,
	}).Info("запускаем analytics-sink")

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Fatal("analytics-sink завершился с ошибкой")
	}
	logger.Info("analytics-sink остановлен")
}
