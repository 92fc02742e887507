package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/Dhoini/customer-console/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// DefaultTopic receives console audit events
const DefaultTopic = "console_mutations"

// kafkaPublisher writes events asynchronously with segmentio/kafka-go
type kafkaPublisher struct {
	writer *kafka.Writer
	topic  string
	log    *logger.Logger
}

// NewKafkaPublisher creates an asynchronous Kafka publisher. Delivery
// failures are only logged.
func NewKafkaPublisher(brokers []string, topic string, log *logger.Logger) (Publisher, error) {
	if len(brokers) == 0 {
		log.Errorw("Kafka brokers list is empty in config, cannot create publisher")
		return nil, errors.New("kafka brokers are not configured")
	}
	if topic == "" {
		topic = DefaultTopic
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // one partition per entity keeps its order
		RequiredAcks: kafka.RequireOne,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Errorw("Failed to deliver audit events", "error", err, "count", len(messages), "topic", topic)
			}
		},
	}

	log.Infow("Kafka publisher initialized", "brokers", brokers, "topic", topic)

	return &kafkaPublisher{writer: writer, topic: topic, log: log}, nil
}

// message encodes e keyed by entity
func message(e Event) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("kafka: failed to marshal event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(e.Entity),
		Value: value,
		Time:  e.At,
	}, nil
}

// Publish queues e; with an async writer this returns before delivery
func (k *kafkaPublisher) Publish(ctx context.Context, e Event) error {
	msg, err := message(e)
	if err != nil {
		k.log.Errorw("Failed to encode audit event", "error", err, "event", e.ID)
		return err
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		k.log.Errorw("Failed to queue audit event", "error", err, "event", e.ID, "topic", k.topic)
		return fmt.Errorf("kafka: failed to write message: %w", err)
	}

	k.log.Debugw("Audit event queued", "event", e.ID, "entity", e.Entity, "op", e.Op, "outcome", e.Outcome)
	return nil
}

// Close flushes pending messages
func (k *kafkaPublisher) Close() error {
	k.log.Infow("Closing Kafka publisher...")
	if err := k.writer.Close(); err != nil {
		k.log.Errorw("Failed to close Kafka writer", "error", err)
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}
	return nil
}

// EnsureTopic creates topic on the cluster if it is missing
func EnsureTopic(ctx context.Context, brokers []string, topic string, partitions int, log *logger.Logger) error {
	if len(brokers) == 0 || brokers[0] == "" {
		log.Errorw("Kafka broker address is empty")
		return errors.New("kafka broker address is empty")
	}
	broker := strings.TrimSpace(brokers[0])
	_, port, err := net.SplitHostPort(broker)
	if err != nil {
		return fmt.Errorf("invalid broker address %s: %w", broker, err)
	}
	if _, err := strconv.Atoi(port); err != nil {
		return fmt.Errorf("invalid broker port %s: %w", broker, err)
	}

	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		log.Errorw("Failed to connect to Kafka broker for topic creation", "broker", broker, "error", err)
		return fmt.Errorf("kafka connection failed: %w", err)
	}
	defer conn.Close()

	existing, err := conn.ReadPartitions(topic)
	if err == nil && len(existing) > 0 {
		log.Debugw("Topic already exists", "topic", topic)
		return nil
	}

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		log.Errorw("Failed to create topic", "error", err, "topic", topic)
		return fmt.Errorf("kafka create topic failed: %w", err)
	}

	log.Infow("Topic ready", "topic", topic)
	return nil
}
