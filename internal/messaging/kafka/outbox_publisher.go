package kafka

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

var errPublisherNotInitialized = errors.New("kafka outbox publisher is not initialized")

// OutboxTopicPublisher доставляет записи outbox витрины в один topic:
// события аналитики в TopicAnalyticsEvents, мёртвые письма воркера в TopicDeadLetterQueue.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
	now      func() time.Time
}

// NewOutboxPublisher создаёт паблишер; пустой topic означает поток аналитики.
func NewOutboxPublisher(producer *Producer, topic string) *OutboxTopicPublisher {
	if topic == "" {
		topic = TopicAnalyticsEvents
	}
	return &OutboxTopicPublisher{producer: producer, topic: topic, now: time.Now}
}

// Topic возвращает topic назначения.
func (p *OutboxTopicPublisher) Topic() string {
	return p.topic
}

// Publish упаковывает запись в OutboxEnvelope. Ключ партиционирования — ID сессии
// (aggregate_id), так что события одного посетителя читаются sink'ом по порядку.
// Тип события и ID записи дублируются в headers для фильтрации без разбора тела.
func (p *OutboxTopicPublisher) Publish(msg domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return errPublisherNotInitialized
	}

	sessionKey := msg.AggregateID
	if sessionKey == "" {
		sessionKey = msg.ID
	}
	envelope := OutboxEnvelope{
		ID:            msg.ID,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		EventType:     msg.EventType,
		Payload:       json.RawMessage(msg.Payload),
		PublishedAt:   p.now().UTC(),
	}
	headers := []sarama.RecordHeader{
		{Key: []byte(HeaderEventType), Value: []byte(msg.EventType)},
		{Key: []byte(HeaderOutboxID), Value: []byte(msg.ID)},
	}
	return p.producer.publishJSON(p.topic, sessionKey, envelope, headers)
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
