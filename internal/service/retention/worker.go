// Package retention удаляет снимки сессий, не обновлявшиеся дольше TTL, и
// отправленные сообщения outbox. Это штатный конец жизненного цикла корзины:
// как очищенное браузером localStorage.
package retention

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

const (
	DefaultSnapshotTTL = 30 * 24 * time.Hour
	DefaultInterval    = time.Hour

	defaultBatchSize = 500

	targetSnapshots = "snapshots"
	targetOutbox    = "outbox"
)

// StalePurger удаляет записи старше before порциями до limit.
type StalePurger interface {
	DeleteStale(ctx context.Context, before time.Time, limit int) (int, error)
}

// SentOutboxPurger удаляет отправленные сообщения outbox.
type SentOutboxPurger interface {
	DeleteSent(ctx context.Context, before time.Time, limit int) (int, error)
}

type Options struct {
	Logger      *log.Entry
	Metrics     *metrics.RetentionMetrics
	Outbox      SentOutboxPurger
	SnapshotTTL time.Duration
	OutboxTTL   time.Duration
	Interval    time.Duration
	BatchSize   int
	Now         func() time.Time
}

type Option func(*Options)

func WithLogger(logger *log.Entry) Option {
	return func(opts *Options) { opts.Logger = logger }
}

func WithMetrics(m *metrics.RetentionMetrics) Option {
	return func(opts *Options) { opts.Metrics = m }
}

// WithOutbox включает очистку отправленного outbox; ttl <= 0 означает TTL снимков.
func WithOutbox(purger SentOutboxPurger, ttl time.Duration) Option {
	return func(opts *Options) {
		opts.Outbox = purger
		opts.OutboxTTL = ttl
	}
}

func WithSnapshotTTL(ttl time.Duration) Option {
	return func(opts *Options) { opts.SnapshotTTL = ttl }
}

func WithInterval(interval time.Duration) Option {
	return func(opts *Options) { opts.Interval = interval }
}

func WithBatchSize(batchSize int) Option {
	return func(opts *Options) { opts.BatchSize = batchSize }
}

func WithClock(now func() time.Time) Option {
	return func(opts *Options) { opts.Now = now }
}

// Worker периодически чистит устаревшие данные сессий.
type Worker struct {
	snapshots StalePurger
	outbox    SentOutboxPurger
	logger    *log.Entry
	metrics   *metrics.RetentionMetrics
	ttl       time.Duration
	outboxTTL time.Duration
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

func NewWorker(snapshots StalePurger, options ...Option) *Worker {
	opts := Options{
		SnapshotTTL: DefaultSnapshotTTL,
		Interval:    DefaultInterval,
		BatchSize:   defaultBatchSize,
		Now:         time.Now,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	if opts.SnapshotTTL <= 0 {
		opts.SnapshotTTL = DefaultSnapshotTTL
	}
	if opts.OutboxTTL <= 0 {
		opts.OutboxTTL = opts.SnapshotTTL
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Worker{
		snapshots: snapshots,
		outbox:    opts.Outbox,
		logger:    logger.WithField("component", "retention-worker"),
		metrics:   opts.Metrics,
		ttl:       opts.SnapshotTTL,
		outboxTTL: opts.OutboxTTL,
		interval:  opts.Interval,
		batchSize: opts.BatchSize,
		now:       opts.Now,
	}
}

// Run выполняет очистку сразу и затем каждые interval до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w.snapshots == nil {
		w.logger.Warn("retention worker is disabled: snapshot store is nil")
		return
	}

	w.RunOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce выполняет один проход очистки и возвращает число удалённых снимков.
func (w *Worker) RunOnce(ctx context.Context) int {
	w.metrics.RecordRun()
	now := w.now().UTC()

	deleted, err := drain(ctx, w.batchSize, func(limit int) (int, error) {
		return w.snapshots.DeleteStale(ctx, now.Add(-w.ttl), limit)
	})
	w.metrics.RecordDeleted(targetSnapshots, deleted)
	w.report(targetSnapshots, deleted, err)

	if w.outbox != nil {
		purged, err := drain(ctx, w.batchSize, func(limit int) (int, error) {
			return w.outbox.DeleteSent(ctx, now.Add(-w.outboxTTL), limit)
		})
		w.metrics.RecordDeleted(targetOutbox, purged)
		w.report(targetOutbox, purged, err)
	}
	return deleted
}

func (w *Worker) report(target string, deleted int, err error) {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		w.metrics.RecordError(target)
		w.logger.WithError(err).WithField("target", target).Warn("retention pass failed")
		return
	}
	if deleted > 0 {
		w.logger.WithFields(log.Fields{"target": target, "deleted": deleted}).Info("retention pass completed")
	}
}

// drain вызывает deleteBatch, пока порция заполнена целиком.
func drain(ctx context.Context, batchSize int, deleteBatch func(limit int) (int, error)) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		deleted, err := deleteBatch(batchSize)
		if err != nil {
			return total, err
		}
		total += deleted
		if deleted < batchSize {
			return total, nil
		}
	}
}

var _ StalePurger = (domain.SnapshotStore)(nil)
