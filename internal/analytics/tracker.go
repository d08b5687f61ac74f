package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// DefaultBufferSize — ёмкость буфера событий по умолчанию.
const DefaultBufferSize = 1024

// Tracker принимает события без блокировки вызывающего и передаёт их в outbox
// из отдельной горутины Run. При переполнении буфера событие отбрасывается.
type Tracker struct {
	events  chan domain.AnalyticsEvent
	outbox  domain.OutboxRepository
	metrics *metrics.AnalyticsMetrics
	logger  *log.Entry
	now     func() time.Time
}

// TrackerOption настраивает Tracker.
type TrackerOption func(*Tracker)

// WithBufferSize задаёт ёмкость буфера.
func WithBufferSize(size int) TrackerOption {
	return func(t *Tracker) {
		if size > 0 {
			t.events = make(chan domain.AnalyticsEvent, size)
		}
	}
}

// WithMetrics подключает метрики.
func WithMetrics(m *metrics.AnalyticsMetrics) TrackerOption {
	return func(t *Tracker) {
		t.metrics = m
	}
}

// WithLogger задаёт logger.
func WithLogger(logger *log.Entry) TrackerOption {
	return func(t *Tracker) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithClock подменяет часы.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// NewTracker создаёт трекер, пишущий события в outbox.
func NewTracker(outbox domain.OutboxRepository, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		events: make(chan domain.AnalyticsEvent, DefaultBufferSize),
		outbox: outbox,
		logger: log.NewEntry(log.StandardLogger()),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.WithField("component", "analytics")
	return t
}

// Track ставит событие в буфер. Никогда не блокирует и не возвращает ошибку.
func (t *Tracker) Track(_ context.Context, event domain.AnalyticsEvent) {
	if !event.Type.Valid() {
		t.logger.WithField("event_type", event.Type).Warn("ignoring unsupported analytics event")
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = t.now().UTC()
	}
	if event.DeviceType == "" {
		event.DeviceType = DeviceType(event.UserAgent)
	}

	select {
	case t.events <- event:
		t.metrics.RecordTracked(string(event.Type))
		t.metrics.SetBufferSize(len(t.events))
	default:
		t.metrics.RecordDropped()
		t.logger.WithFields(log.Fields{
			"event_type": event.Type,
			"session_id": event.SessionID,
		}).Warn("analytics buffer full, event dropped")
	}
}

// Run переносит события из буфера в outbox до отмены ctx,
// после чего дописывает уже накопленные события.
func (t *Tracker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			t.Flush()
			return
		case event := <-t.events:
			t.enqueue(event)
		}
	}
}

// Flush синхронно переносит в outbox все накопленные события.
func (t *Tracker) Flush() int {
	flushed := 0
	for {
		select {
		case event := <-t.events:
			t.enqueue(event)
			flushed++
		default:
			return flushed
		}
	}
}

// Buffered возвращает число событий в буфере.
func (t *Tracker) Buffered() int {
	return len(t.events)
}

func (t *Tracker) enqueue(event domain.AnalyticsEvent) {
	defer t.metrics.SetBufferSize(len(t.events))

	payload, err := Encode(event)
	if err != nil {
		t.metrics.RecordEnqueue(err)
		t.logger.WithError(err).Error("failed to encode analytics event")
		return
	}

	_, err = t.outbox.Enqueue(domain.OutboxMessage{
		ID:            event.ID,
		AggregateType: OutboxAggregateType,
		AggregateID:   event.SessionID,
		EventType:     OutboxEventType,
		Payload:       payload,
	})
	t.metrics.RecordEnqueue(err)
	if err != nil {
		t.logger.WithError(err).WithField("event_id", event.ID).Error("failed to enqueue analytics event")
	}
}

var _ domain.AnalyticsTracker = (*Tracker)(nil)
