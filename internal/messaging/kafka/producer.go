package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
)

// producerClientID — client.id, под которым витрина видна брокерам.
const producerClientID = "storefront"

// Producer — синхронный producer событий витрины. Через него outbox-воркер
// отправляет события аналитики, а consumer перекладывает сообщения в DLQ.
type Producer struct {
	sync   sarama.SyncProducer
	logger *log.Entry
	now    func() time.Time
}

// newSyncConfig собирает конфигурацию sarama для идемпотентной доставки:
// acks от всех реплик и один запрос в полёте на соединение.
func newSyncConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.ClientID = producerClientID
	cfg.Producer.Idempotent = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Net.MaxOpenRequests = 1
	return cfg
}

// NewProducer подключается к брокерам.
func NewProducer(brokers []string, logger *log.Entry) (*Producer, error) {
	sync, err := sarama.NewSyncProducer(brokers, newSyncConfig())
	if err != nil {
		return nil, fmt.Errorf("connect kafka producer to %v: %w", brokers, err)
	}
	return NewProducerFromSync(sync, logger), nil
}

// NewProducerFromSync оборачивает готовый sarama.SyncProducer (в тестах mocks.SyncProducer).
func NewProducerFromSync(sync sarama.SyncProducer, logger *log.Entry) *Producer {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Producer{
		sync:   sync,
		logger: logger.WithField("component", "kafka-producer"),
		now:    time.Now,
	}
}

// PublishEvent кодирует event в JSON и отправляет его в topic с ключом key.
// Для событий аналитики ключ — ID сессии.
func (p *Producer) PublishEvent(topic, key string, event any) error {
	return p.publishJSON(topic, key, event, nil)
}

func (p *Producer) publishJSON(topic, key string, event any, headers []sarama.RecordHeader) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event for %s: %w", topic, err)
	}
	return p.publish(topic, key, value, headers)
}

func (p *Producer) publish(topic, key string, value []byte, headers []sarama.RecordHeader) error {
	fields := log.Fields{"topic": topic, "key": key}

	partition, offset, err := p.sync.SendMessage(&sarama.ProducerMessage{
		Topic:     topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(value),
		Headers:   headers,
		Timestamp: p.now(),
	})
	if err != nil {
		p.logger.WithError(err).WithFields(fields).Warn("kafka send failed")
		return fmt.Errorf("send to %s: %w", topic, err)
	}

	fields["partition"] = partition
	fields["offset"] = offset
	p.logger.WithFields(fields).Debug("kafka message delivered")
	return nil
}

// Close сбрасывает буферы и закрывает соединения с брокерами.
func (p *Producer) Close() error {
	if err := p.sync.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	return nil
}
