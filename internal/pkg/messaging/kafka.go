package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/segmentio/kafka-go"
)

// ErrKafkaBrokersRequired is returned when no broker address is configured.
var ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")

// KafkaConfig configures the Kafka driver.
type KafkaConfig struct {
	Brokers []string
	Dialer  *kafka.Dialer
}

// Kafka writes keyed messages so one source stays on one partition, and
// reads with consumer groups. Offsets are committed after the handler runs
// regardless of its result.
type Kafka struct {
	cfg    KafkaConfig
	writer *kafka.Writer

	mu      sync.Mutex
	closed  bool
	readers []*kafka.Reader
}

// NewKafka builds a writer shared by every topic.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}

	return &Kafka{cfg: cfg, writer: w}, nil
}

func (k *Kafka) Publish(ctx context.Context, topic string, msg Message) error {
	if topic == "" {
		return ErrTopicRequired
	}

	k.mu.Lock()
	closed := k.closed
	k.mu.Unlock()
	if closed {
		return ErrClosed
	}

	kmsg := kafka.Message{Topic: topic, Key: []byte(msg.Key), Value: msg.Body}
	for key, v := range msg.Headers {
		kmsg.Headers = append(kmsg.Headers, kafka.Header{Key: key, Value: []byte(v)})
	}

	if err := k.writer.WriteMessages(ctx, kmsg); err != nil {
		return fmt.Errorf("messaging: kafka publish: %w", err)
	}

	return nil
}

func (k *Kafka) Subscribe(ctx context.Context, topic, group string, h Handler) error {
	if err := validateSubscribe(topic, group, h); err != nil {
		return err
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.cfg.Brokers,
		GroupID:  group,
		Topic:    topic,
		MaxBytes: 10e6,
		Dialer:   k.cfg.Dialer,
	})

	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return errors.Join(ErrClosed, reader.Close())
	}
	k.readers = append(k.readers, reader)
	k.mu.Unlock()

	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("messaging: kafka fetch: %w", err)
		}

		msg := Message{Key: string(m.Key), Body: m.Value, Headers: make(map[string]string, len(m.Headers))}
		for _, hd := range m.Headers {
			msg.Headers[hd.Key] = string(hd.Value)
		}

		if err := safeHandle(ctx, h, msg); err != nil {
			slog.WarnContext(ctx, "kafka handler failed", "topic", topic, "group", group, "offset", m.Offset, "error", err)
		}

		if err := reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			return fmt.Errorf("messaging: kafka commit: %w", err)
		}
	}
}

// Close flushes the writer and closes every reader.
func (k *Kafka) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	readers := k.readers
	k.readers = nil
	k.mu.Unlock()

	errs := []error{k.writer.Close()}
	for _, r := range readers {
		errs = append(errs, r.Close())
	}

	return errors.Join(errs...)
}
