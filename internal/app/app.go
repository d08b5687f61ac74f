package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/vladislavdragonenkov/storefront/internal/analytics"
	"github.com/vladislavdragonenkov/storefront/internal/cart"
	"github.com/vladislavdragonenkov/storefront/internal/compare"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/httpapi"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/outbox"
	"github.com/vladislavdragonenkov/storefront/internal/service/retention"
	"github.com/vladislavdragonenkov/storefront/internal/session"
	"github.com/vladislavdragonenkov/storefront/internal/tracing"
	"github.com/vladislavdragonenkov/storefront/internal/version"
	"github.com/vladislavdragonenkov/storefront/internal/wishlist"
)

const serviceName = "storefront"

// Run поднимает HTTP API, gRPC health, ops-сервер и фоновые воркеры и
// блокируется до отмены ctx или ошибки одного из серверов.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()

	shutdownTracing, err := tracing.Init(ctx, tracing.Options{
		ServiceName: serviceName,
		Version:     version.GetVersion(),
		Mode:        cfg.TracingMode,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout())
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.WithError(err).Warn("failed to flush traces")
		}
	}()

	producer, err := initKafkaProducer(cfg.KafkaBrokers, logger)
	if err != nil {
		logger.WithError(err).Warn("kafka недоступна, события аналитики только логируются")
	}
	defer closeKafka(producer, logger)
	publisher, dlqPublisher := outboxPublishers(producer, logger)

	tracker := analytics.NewTracker(deps.outboxRepo,
		analytics.WithBufferSize(cfg.AnalyticsBufferSize),
		analytics.WithMetrics(metrics.NewAnalyticsMetrics()),
		analytics.WithLogger(logger),
	)

	gin.SetMode(gin.ReleaseMode)
	apiServer := &http.Server{
		Handler:           newAPIHandler(cfg, deps, tracker, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	outboxWorker := outbox.NewWorker(deps.outboxRepo, publisher,
		outbox.WithLogger(logger),
		outbox.WithMetrics(metrics.NewOutboxMetrics()),
		outbox.WithDLQPublisher(dlqPublisher),
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
	)

	retentionOpts := []retention.Option{
		retention.WithLogger(logger),
		retention.WithMetrics(metrics.NewRetentionMetrics()),
		retention.WithSnapshotTTL(cfg.SnapshotTTL),
		retention.WithInterval(cfg.RetentionInterval),
		retention.WithBatchSize(cfg.RetentionBatchSize),
	}
	if purger := deps.outboxPurger(); purger != nil {
		retentionOpts = append(retentionOpts, retention.WithOutbox(purger, cfg.OutboxSentTTL))
	}
	retentionWorker := retention.NewWorker(deps.snapshots, retentionOpts...)

	healthHandler := newHealthHandler(cfg, deps)

	grpcMetrics := registerGRPCMetrics(logger)
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(grpcMetrics.StreamServerInterceptor()),
	)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	grpcMetrics.InitializeMetrics(grpcServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)

	apiListener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen http %s: %w", cfg.HTTPAddr, err)
	}
	grpcListener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		_ = apiListener.Close()
		return fmt.Errorf("listen grpc %s: %w", cfg.GRPCAddr, err)
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)
	defer shutdownHTTP(metricsSrv, logger, cfg.shutdownTimeout())

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		tracker.Run(groupCtx)
		return nil
	})
	group.Go(func() error {
		outboxWorker.Run(groupCtx)
		return nil
	})
	group.Go(func() error {
		retentionWorker.Run(groupCtx)
		return nil
	})

	group.Go(func() error {
		logger.Infof("HTTP API слушает %s", apiListener.Addr())
		if err := apiServer.Serve(apiListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http api: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		logger.Infof("gRPC сервер слушает %s", grpcListener.Addr())
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("получен сигнал остановки, останавливаем серверы")
		healthHandler.SetShuttingDown()
		healthServer.Shutdown()

		shutdownHTTP(apiServer, logger, cfg.shutdownTimeout())
		stopGRPC(grpcServer, logger, cfg.shutdownTimeout())
		return nil
	})

	if err := group.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// newAPIHandler собирает сервисы корзины, избранного и сравнения поверх общего
// хранилища и блокировок сессий.
func newAPIHandler(cfg Config, deps *runtimeDependencies, tracker domain.AnalyticsTracker, logger *log.Entry) http.Handler {
	cartMetrics := metrics.NewCartMetrics()
	locker := session.NewLocker(session.DefaultStripes)
	opts := httpapi.Options{
		Cart: cart.NewService(cart.Dependencies{
			Store:   deps.snapshots,
			Tracker: tracker,
			Metrics: cartMetrics,
			Logger:  logger.WithField("layer", "cart"),
		}, locker),
		Wishlist: wishlist.NewService(deps.snapshots, locker, cartMetrics, logger.WithField("layer", "wishlist")),
		Compare: compare.NewService(deps.snapshots, locker,
			compare.WithLimit(cfg.CompareLimit),
			compare.WithMetrics(cartMetrics),
			compare.WithLogger(logger.WithField("layer", "compare")),
		),
		Catalog: deps.catalog,
		Tracker: tracker,
		Metrics: metrics.NewHTTPMetrics(),
		Logger:  logger,
	}
	if cfg.TracingMode != tracing.ModeOff {
		opts.ServiceName = serviceName
	}
	return httpapi.NewRouter(opts)
}

func (c Config) shutdownTimeout() time.Duration {
	if c.ShutdownTimeout <= 0 {
		return 5 * time.Second
	}
	return c.ShutdownTimeout
}

// newHealthHandler регистрирует проверки: хранилище критично, backlog outbox — нет.
func newHealthHandler(cfg Config, deps *runtimeDependencies) *healthcheck.Handler {
	handler := healthcheck.NewHandler(version.GetVersion())
	if deps.store != nil {
		handler.RegisterChecker("postgres", healthcheck.NewCheckFunc("postgres", deps.store.Ping))
	}
	if cfg.OutboxMaxPending > 0 {
		handler.RegisterOptional("outbox_backlog", healthcheck.NewCheckFunc("outbox_backlog", func(context.Context) error {
			stats, err := deps.outboxRepo.Stats()
			if err != nil {
				return err
			}
			if stats.PendingCount > cfg.OutboxMaxPending {
				return fmt.Errorf("outbox backlog %d exceeds %d", stats.PendingCount, cfg.OutboxMaxPending)
			}
			return nil
		}))
	}
	return handler
}

func registerGRPCMetrics(logger *log.Entry) *promgrpc.ServerMetrics {
	grpcMetrics := promgrpc.NewServerMetrics()
	if err := prometheus.Register(grpcMetrics); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok2 := are.ExistingCollector.(*promgrpc.ServerMetrics); ok2 {
				return existing
			}
		}
		logger.WithError(err).Warn("failed to register grpc metrics")
	}
	return grpcMetrics
}

// startMetricsServer запускает ops-сервер: /metrics для Prometheus и health-эндпоинты.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger, 5*time.Second)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry, timeout time.Duration) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}

func stopGRPC(srv *grpc.Server, logger *log.Entry, timeout time.Duration) {
	stopped := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(timeout):
		logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		srv.Stop()
	}
}
