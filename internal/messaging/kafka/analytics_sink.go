package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/analytics"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// ErrPoisonMessage — сообщение невозможно разобрать; повтор не поможет.
var ErrPoisonMessage = errors.New("poison message")

// NewAnalyticsSinkHandler возвращает обработчик, сохраняющий события аналитики из
// outbox-конвертов в repo. Конверты других типов пропускаются.
func NewAnalyticsSinkHandler(repo domain.AnalyticsEventRepository, m *metrics.AnalyticsMetrics, logger *log.Entry) MessageHandler {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	logger = logger.WithField("component", "analytics-sink")

	return func(ctx context.Context, message *sarama.ConsumerMessage) error {
		envelope, err := ParseOutboxEnvelope(message)
		if err != nil {
			m.RecordStored("invalid")
			return fmt.Errorf("%w: %w", ErrPoisonMessage, err)
		}
		if envelope.EventType != analytics.OutboxEventType {
			m.RecordStored("skipped")
			logger.WithField("event_type", envelope.EventType).Debug("skip non-analytics envelope")
			return nil
		}

		event, err := analytics.Decode(envelope.Payload)
		if err != nil {
			m.RecordStored("invalid")
			return fmt.Errorf("%w: %w", ErrPoisonMessage, err)
		}
		if event.ID == "" {
			event.ID = envelope.ID
		}

		if err := repo.Insert(ctx, event); err != nil {
			m.RecordStored("failed")
			return fmt.Errorf("store analytics event %s: %w", event.ID, err)
		}
		m.RecordStored("stored")
		logger.WithFields(log.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
			"session_id": event.SessionID,
		}).Debug("analytics event stored")
		return nil
	}
}
