package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// ErrNATSURLRequired is returned when no server URL is configured.
var ErrNATSURLRequired = errors.New("messaging: nats url is required")

// NATSConfig configures the NATS driver.
type NATSConfig struct {
	URL     string
	Name    string
	Options []nats.Option
}

// NATS publishes core NATS messages and consumes with queue groups.
// Core NATS has no redelivery: a failed handler only logs.
type NATS struct {
	conn *nats.Conn
}

// NewNATS connects to the configured server.
func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	opts := append([]nats.Option{nats.Name(cfg.Name)}, cfg.Options...)
	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}

	return &NATS{conn: conn}, nil
}

func (n *NATS) Publish(ctx context.Context, topic string, msg Message) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if n.conn.IsClosed() {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	nmsg := nats.NewMsg(topic)
	nmsg.Data = msg.Body
	for k, v := range msg.Headers {
		nmsg.Header.Set(k, v)
	}
	if msg.Key != "" {
		nmsg.Header.Set(headerKey, msg.Key)
	}

	if err := n.conn.PublishMsg(nmsg); err != nil {
		return fmt.Errorf("messaging: nats publish: %w", err)
	}

	return nil
}

func (n *NATS) Subscribe(ctx context.Context, topic, group string, h Handler) error {
	if err := validateSubscribe(topic, group, h); err != nil {
		return err
	}

	sub, err := n.conn.QueueSubscribe(topic, group, func(m *nats.Msg) {
		msg := Message{Body: m.Data, Headers: make(map[string]string, len(m.Header))}
		for k := range m.Header {
			msg.Headers[k] = m.Header.Get(k)
		}
		msg.Key = msg.Headers[headerKey]
		delete(msg.Headers, headerKey)

		if err := safeHandle(ctx, h, msg); err != nil {
			slog.WarnContext(ctx, "nats handler failed", "topic", topic, "group", group, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("messaging: nats subscribe: %w", err)
	}

	<-ctx.Done()

	return sub.Drain()
}

// Close flushes pending publishes and closes the connection.
func (n *NATS) Close() error {
	if n.conn.IsClosed() {
		return nil
	}

	err := n.conn.Flush()
	n.conn.Close()

	return err
}

const headerKey = "X-Message-Key"
