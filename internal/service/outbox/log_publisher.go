package outbox

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// LogPublisher пишет сообщения outbox в лог. Используется, когда брокеры не
// настроены: backlog не растёт, события видны в логах сервиса.
type LogPublisher struct {
	logger *log.Entry
}

func NewLogPublisher(logger *log.Entry) *LogPublisher {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &LogPublisher{logger: logger.WithField("component", "outbox-log-publisher")}
}

func (p *LogPublisher) Publish(event domain.OutboxMessage) error {
	p.logger.WithFields(log.Fields{
		"outbox_id":    event.ID,
		"aggregate_id": event.AggregateID,
		"event_type":   event.EventType,
		"payload_size": len(event.Payload),
	}).Info("outbox message published to log")
	return nil
}

var _ domain.OutboxPublisher = (*LogPublisher)(nil)
