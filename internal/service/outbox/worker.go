package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

const (
	defaultPollInterval   = time.Second
	defaultBatchSize      = 100
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 50 * time.Millisecond
	maxRetryDelay         = 5 * time.Second
)

// errMalformedPayload — payload не является JSON; брокер его примет, но sink не разберёт.
var errMalformedPayload = errors.New("outbox payload is not valid JSON")

// Option настраивает Worker.
type Option func(*Worker)

func WithLogger(logger *log.Entry) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithMetrics задаёт метрики доставки; без них воркер работает молча.
func WithMetrics(m *metrics.OutboxMetrics) Option {
	return func(w *Worker) { w.metrics = m }
}

// WithDLQPublisher задаёт получателя сообщений, которые не удалось доставить.
func WithDLQPublisher(publisher domain.OutboxPublisher) Option {
	return func(w *Worker) { w.dlq = publisher }
}

func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.pollInterval = interval
		}
	}
}

func WithBatchSize(size int) Option {
	return func(w *Worker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

// WithMaxAttempts задаёт число попыток публикации одного сообщения за цикл.
func WithMaxAttempts(attempts int) Option {
	return func(w *Worker) {
		if attempts > 0 {
			w.maxAttempts = attempts
		}
	}
}

// WithRetryBaseDelay задаёт первую паузу между попытками; дальше она удваивается до maxRetryDelay.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(w *Worker) {
		if delay < 0 {
			delay = 0
		}
		w.retryBaseDelay = delay
	}
}

// WithClock подменяет часы для расчёта возраста backlog.
func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		if now != nil {
			w.now = now
		}
	}
}

// BatchResult — итог одного цикла доставки.
type BatchResult struct {
	Pulled int
	Sent   int
	Failed int
}

// Worker переносит события аналитики из outbox в брокер. Сообщение, не
// доставленное за maxAttempts попыток, помечается failed и копируется в DLQ.
// Сообщение с битым payload в брокер не отправляется вовсе.
type Worker struct {
	repo      domain.OutboxRepository
	publisher domain.OutboxPublisher
	dlq       domain.OutboxPublisher
	logger    *log.Entry
	metrics   *metrics.OutboxMetrics
	now       func() time.Time

	pollInterval   time.Duration
	batchSize      int
	maxAttempts    int
	retryBaseDelay time.Duration
}

func NewWorker(repo domain.OutboxRepository, publisher domain.OutboxPublisher, options ...Option) *Worker {
	w := &Worker{
		repo:           repo,
		publisher:      publisher,
		logger:         log.NewEntry(log.StandardLogger()),
		now:            time.Now,
		pollInterval:   defaultPollInterval,
		batchSize:      defaultBatchSize,
		maxAttempts:    defaultMaxAttempts,
		retryBaseDelay: defaultRetryBaseDelay,
	}
	for _, option := range options {
		option(w)
	}
	w.logger = w.logger.WithField("component", "outbox-worker")
	return w
}

// Run опрашивает outbox каждые pollInterval до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w.repo == nil || w.publisher == nil {
		w.logger.Warn("outbox worker is disabled: repo or publisher is nil")
		return
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		result := w.ProcessOnce(ctx)
		if result.Pulled > 0 {
			w.logger.WithFields(log.Fields{
				"pulled": result.Pulled,
				"sent":   result.Sent,
				"failed": result.Failed,
			}).Debug("outbox batch processed")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ProcessOnce забирает один батч pending-сообщений и пытается их доставить.
func (w *Worker) ProcessOnce(ctx context.Context) BatchResult {
	var result BatchResult
	if ctx.Err() != nil {
		return result
	}
	defer w.refreshBacklog()

	batch, err := w.repo.PullPending(w.batchSize)
	if err != nil {
		w.logger.WithError(err).Warn("failed to pull pending outbox messages")
		return result
	}
	result.Pulled = len(batch)

	for _, msg := range batch {
		if ctx.Err() != nil {
			break
		}
		entry := w.logger.WithFields(log.Fields{"outbox_id": msg.ID, "event_type": msg.EventType})

		err := w.deliver(ctx, msg)
		switch {
		case err == nil:
			result.Sent++
			if markErr := w.repo.MarkSent(msg.ID); markErr != nil {
				entry.WithError(markErr).Warn("failed to mark outbox message as sent")
			}
		case ctx.Err() != nil:
			// Сообщение остаётся pending и будет взято следующим запуском.
			return result
		default:
			result.Failed++
			w.giveUp(entry, msg, err)
		}
	}
	return result
}

func (w *Worker) deliver(ctx context.Context, msg domain.OutboxMessage) error {
	if !json.Valid(msg.Payload) {
		w.metrics.RecordAttempt("poison")
		return errMalformedPayload
	}

	var lastErr error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		if lastErr = w.publisher.Publish(msg); lastErr == nil {
			w.metrics.RecordAttempt("sent")
			return nil
		}
		w.metrics.RecordAttempt("retry_error")
		if attempt == w.maxAttempts {
			break
		}
		if delay := w.retryBackoff(attempt); delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return fmt.Errorf("publish failed after %d attempts: %w", w.maxAttempts, lastErr)
}

func (w *Worker) giveUp(entry *log.Entry, msg domain.OutboxMessage, cause error) {
	entry.WithError(cause).Error("outbox message could not be delivered")
	w.metrics.RecordAttempt("failed")

	if err := w.publishToDLQ(msg, cause); err != nil {
		entry.WithError(err).Warn("failed to publish to DLQ")
		w.metrics.RecordAttempt("dlq_failed")
	}
	if err := w.repo.MarkFailed(msg.ID); err != nil {
		entry.WithError(err).Warn("failed to mark outbox message as failed")
	}
}

func (w *Worker) refreshBacklog() {
	stats, err := w.repo.Stats()
	if err != nil {
		w.logger.WithError(err).Warn("failed to collect outbox backlog stats")
		return
	}

	var age time.Duration
	if stats.PendingCount > 0 && !stats.OldestPendingAt.IsZero() {
		age = w.now().Sub(stats.OldestPendingAt)
	}
	w.metrics.SetBacklog(stats.PendingCount, age)
}

// retryBackoff возвращает паузу перед попыткой attempt+1.
func (w *Worker) retryBackoff(attempt int) time.Duration {
	if w.retryBaseDelay <= 0 || attempt < 1 {
		return 0
	}
	delay := w.retryBaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxRetryDelay {
			return maxRetryDelay
		}
	}
	if delay > maxRetryDelay {
		return maxRetryDelay
	}
	return delay
}

// deadLetter — payload сообщения в DLQ; исходное событие вложено без изменений.
type deadLetter struct {
	OutboxID       string          `json:"outbox_id"`
	AggregateType  string          `json:"aggregate_type"`
	AggregateID    string          `json:"aggregate_id"`
	EventType      string          `json:"event_type"`
	Payload        json.RawMessage `json:"payload"`
	PublishError   string          `json:"publish_error"`
	DLQPublishedAt time.Time       `json:"dlq_published_at"`
}

func (w *Worker) publishToDLQ(msg domain.OutboxMessage, cause error) error {
	if w.dlq == nil {
		return nil
	}

	letter := deadLetter{
		OutboxID:       msg.ID,
		AggregateType:  msg.AggregateType,
		AggregateID:    msg.AggregateID,
		EventType:      msg.EventType,
		PublishError:   cause.Error(),
		DLQPublishedAt: w.now().UTC(),
	}
	if json.Valid(msg.Payload) {
		letter.Payload = json.RawMessage(msg.Payload)
	} else {
		// Битый payload кладём строкой, иначе сам конверт DLQ не сериализуется.
		quoted, _ := json.Marshal(string(msg.Payload))
		letter.Payload = quoted
	}

	payload, err := json.Marshal(letter)
	if err != nil {
		return fmt.Errorf("marshal dlq payload: %w", err)
	}

	dead := msg
	dead.Payload = payload
	if err := w.dlq.Publish(dead); err != nil {
		return fmt.Errorf("publish to dlq: %w", err)
	}
	return nil
}
