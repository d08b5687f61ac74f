// Команда dlq-reprocess перечитывает storefront.dlq и возвращает события аналитики
// в исходный topic. По умолчанию работает в режиме dry-run.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

const (
	defaultReplayLimit = 100
	defaultIdleTimeout = 2 * time.Second
)

type options struct {
	brokers     []string
	sourceTopic string
	targetTopic string
	limit       int
	execute     bool
	fromNewest  bool
	idleTimeout time.Duration
}

// outboxDeadLetter — payload, который outbox-воркер кладёт в DLQ после исчерпания попыток.
type outboxDeadLetter struct {
	OutboxID      string          `json:"outbox_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishError  string          `json:"publish_error"`
}

type replayMessage struct {
	topic string
	key   string
	value []byte
}

type offsetClient interface {
	GetOffset(topic string, partition int32, time int64) (int64, error)
	Partitions(topic string) ([]int32, error)
	Close() error
}

type partitionReader interface {
	Messages() <-chan *sarama.ConsumerMessage
	Errors() <-chan *sarama.ConsumerError
	Close() error
}

type partitionSource interface {
	ConsumePartition(topic string, partition int32, offset int64) (partitionReader, error)
	Close() error
}

type consumerSource struct {
	consumer sarama.Consumer
}

func (s consumerSource) ConsumePartition(topic string, partition int32, offset int64) (partitionReader, error) {
	return s.consumer.ConsumePartition(topic, partition, offset)
}

func (s consumerSource) Close() error {
	return s.consumer.Close()
}

func parseOptions(args []string, lookup func(string) string) (options, error) {
	var (
		brokersRaw string
		opts       options
	)

	fs := flag.NewFlagSet("dlq-reprocess", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&brokersRaw, "brokers", "", "Kafka brokers, comma-separated (fallback: KAFKA_BROKERS)")
	fs.StringVar(&opts.sourceTopic, "source-topic", kafka.TopicDeadLetterQueue, "DLQ topic to scan")
	fs.StringVar(&opts.targetTopic, "target-topic", kafka.TopicAnalyticsEvents, "topic for replayed outbox events")
	fs.IntVar(&opts.limit, "limit", defaultReplayLimit, "max messages to scan")
	fs.BoolVar(&opts.execute, "execute", false, "publish replayed messages; default is dry-run")
	fs.BoolVar(&opts.fromNewest, "from-newest", false, "start from the latest messages of each partition")
	fs.DurationVar(&opts.idleTimeout, "idle-timeout", defaultIdleTimeout, "stop reading a partition after this idle time")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if strings.TrimSpace(brokersRaw) == "" {
		brokersRaw = lookup("KAFKA_BROKERS")
	}
	for _, b := range strings.Split(brokersRaw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			opts.brokers = append(opts.brokers, b)
		}
	}

	switch {
	case len(opts.brokers) == 0:
		return options{}, errors.New("kafka brokers are required (-brokers or KAFKA_BROKERS)")
	case strings.TrimSpace(opts.sourceTopic) == "":
		return options{}, errors.New("source-topic is required")
	case strings.TrimSpace(opts.targetTopic) == "":
		return options{}, errors.New("target-topic is required")
	case opts.limit <= 0:
		return options{}, errors.New("limit must be > 0")
	case opts.idleTimeout <= 0:
		return options{}, errors.New("idle-timeout must be > 0")
	}
	return opts, nil
}

type replayStats struct {
	scanned  int
	replayed int
	skipped  int
}

func (s *replayStats) add(other replayStats) {
	s.scanned += other.scanned
	s.replayed += other.replayed
	s.skipped += other.skipped
}

type replayer struct {
	opts     options
	offsets  offsetClient
	source   partitionSource
	producer sarama.SyncProducer
	logger   *log.Entry
	now      func() time.Time
}

func (r *replayer) run(ctx context.Context) (replayStats, error) {
	var total replayStats
	if r.offsets == nil || r.source == nil {
		return total, errors.New("kafka client and consumer are required")
	}
	if r.opts.execute && r.producer == nil {
		return total, errors.New("producer is required in execute mode")
	}

	partitions, err := r.offsets.Partitions(r.opts.sourceTopic)
	if err != nil {
		return total, fmt.Errorf("get partitions for topic %s: %w", r.opts.sourceTopic, err)
	}
	sort.Slice(partitions, func(i, j int) bool { return partitions[i] < partitions[j] })

	for _, partition := range partitions {
		remaining := r.opts.limit - total.scanned
		if remaining <= 0 {
			break
		}
		stats, err := r.replayPartition(ctx, partition, remaining)
		total.add(stats)
		if err != nil {
			return total, err
		}
	}

	r.logger.WithFields(log.Fields{
		"execute":  r.opts.execute,
		"scanned":  total.scanned,
		"replayed": total.replayed,
		"skipped":  total.skipped,
	}).Info("dlq replay finished")
	return total, nil
}

func (r *replayer) replayPartition(ctx context.Context, partition int32, limit int) (replayStats, error) {
	var stats replayStats

	oldest, err := r.offsets.GetOffset(r.opts.sourceTopic, partition, sarama.OffsetOldest)
	if err != nil {
		return stats, fmt.Errorf("get oldest offset for partition %d: %w", partition, err)
	}
	newest, err := r.offsets.GetOffset(r.opts.sourceTopic, partition, sarama.OffsetNewest)
	if err != nil {
		return stats, fmt.Errorf("get newest offset for partition %d: %w", partition, err)
	}
	if newest <= oldest {
		return stats, nil
	}

	start := oldest
	if r.opts.fromNewest && newest-int64(limit) > oldest {
		start = newest - int64(limit)
	}

	reader, err := r.source.ConsumePartition(r.opts.sourceTopic, partition, start)
	if err != nil {
		return stats, fmt.Errorf("consume partition %d: %w", partition, err)
	}
	defer func() { _ = reader.Close() }()

	idle := time.NewTimer(r.opts.idleTimeout)
	defer idle.Stop()

	for stats.scanned < limit {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		case <-idle.C:
			return stats, nil
		case cerr := <-reader.Errors():
			if cerr != nil {
				return stats, fmt.Errorf("partition %d consumer error: %w", partition, cerr)
			}
		case msg, ok := <-reader.Messages():
			if !ok || msg == nil || msg.Offset >= newest {
				return stats, nil
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(r.opts.idleTimeout)

			stats.scanned++
			if err := r.handle(msg, &stats); err != nil {
				return stats, err
			}
			if msg.Offset+1 >= newest {
				return stats, nil
			}
		}
	}
	return stats, nil
}

func (r *replayer) handle(msg *sarama.ConsumerMessage, stats *replayStats) error {
	entry := r.logger.WithFields(log.Fields{"partition": msg.Partition, "offset": msg.Offset})

	replay, ok, err := extractReplay(msg.Value, r.opts.targetTopic, r.now())
	if err != nil || !ok {
		stats.skipped++
		if err != nil {
			entry.WithError(err).Warn("skip unsupported dlq message")
		}
		return nil
	}

	if !r.opts.execute {
		entry.WithFields(log.Fields{"target_topic": replay.topic, "key": replay.key}).Info("dlq replay candidate")
		stats.replayed++
		return nil
	}

	if _, _, err := r.producer.SendMessage(&sarama.ProducerMessage{
		Topic:     replay.topic,
		Key:       sarama.StringEncoder(replay.key),
		Value:     sarama.ByteEncoder(replay.value),
		Timestamp: r.now().UTC(),
	}); err != nil {
		return fmt.Errorf("publish replay message: %w", err)
	}
	stats.replayed++
	return nil
}

// extractReplay восстанавливает исходное сообщение из записи DLQ. Поддерживаются два формата:
// kafka.DeadLetter от consumer group и outbox-конверт с outboxDeadLetter внутри.
func extractReplay(value []byte, defaultTopic string, now time.Time) (replayMessage, bool, error) {
	var letter kafka.DeadLetter
	if err := json.Unmarshal(value, &letter); err == nil && letter.OriginalValue != "" {
		topic := strings.TrimSpace(letter.OriginalTopic)
		if topic == "" {
			topic = defaultTopic
		}
		return replayMessage{topic: topic, key: letter.OriginalKey, value: []byte(letter.OriginalValue)}, true, nil
	}

	var envelope kafka.OutboxEnvelope
	if err := json.Unmarshal(value, &envelope); err != nil || len(envelope.Payload) == 0 {
		return replayMessage{}, false, nil
	}

	var dead outboxDeadLetter
	if err := json.Unmarshal(envelope.Payload, &dead); err != nil {
		return replayMessage{}, false, fmt.Errorf("decode outbox dlq payload: %w", err)
	}
	if len(dead.Payload) == 0 {
		return replayMessage{}, false, errors.New("outbox dlq payload does not contain original event payload")
	}

	restored := kafka.OutboxEnvelope{
		ID:            firstNonEmpty(dead.OutboxID, envelope.ID),
		AggregateType: firstNonEmpty(dead.AggregateType, envelope.AggregateType),
		AggregateID:   firstNonEmpty(dead.AggregateID, envelope.AggregateID),
		EventType:     firstNonEmpty(dead.EventType, envelope.EventType),
		Payload:       dead.Payload,
		PublishedAt:   now.UTC(),
	}
	encoded, err := json.Marshal(restored)
	if err != nil {
		return replayMessage{}, false, fmt.Errorf("encode replay envelope: %w", err)
	}
	return replayMessage{
		topic: defaultTopic,
		key:   firstNonEmpty(restored.AggregateID, restored.ID),
		value: encoded,
	}, true, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func newReplayer(opts options, logger *log.Entry) (*replayer, func(), error) {
	client, err := sarama.NewClient(opts.brokers, sarama.NewConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("create kafka client: %w", err)
	}
	consumer, err := sarama.NewConsumerFromClient(client)
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("create kafka consumer: %w", err)
	}

	r := &replayer{
		opts:    opts,
		offsets: client,
		source:  consumerSource{consumer: consumer},
		logger:  logger,
		now:     time.Now,
	}
	closeAll := func() {
		if r.producer != nil {
			_ = r.producer.Close()
		}
		_ = consumer.Close()
		_ = client.Close()
	}

	if opts.execute {
		cfg := sarama.NewConfig()
		cfg.Producer.RequiredAcks = sarama.WaitForAll
		cfg.Producer.Retry.Max = 5
		cfg.Producer.Return.Successes = true
		producer, err := sarama.NewSyncProducer(opts.brokers, cfg)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("create kafka producer: %w", err)
		}
		r.producer = producer
	}
	return r, closeAll, nil
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	logger := log.WithField("service", "dlq-reprocess")

	opts, err := parseOptions(os.Args[1:], os.Getenv)
	if err != nil {
		fail("%v", err)
	}

	r, closeAll, err := newReplayer(opts, logger)
	if err != nil {
		fail("%v", err)
	}
	_, err = r.run(context.Background())
	closeAll()
	if err != nil {
		fail("dlq replay failed: %v", err)
	}
}

func fail(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
