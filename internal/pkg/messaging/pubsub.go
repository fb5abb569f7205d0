package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"cloud.google.com/go/pubsub/v2"
	"google.golang.org/api/option"
)

// ErrPubSubProjectRequired is returned when no project id is configured.
var ErrPubSubProjectRequired = errors.New("messaging: pubsub project id is required")

// PubSubConfig configures the Google Pub/Sub driver. Subscribe's group is
// the subscription name; the subscription must already exist.
type PubSubConfig struct {
	ProjectID     string
	ClientOptions []option.ClientOption
}

// PubSub publishes with per-topic publishers and nacks on handler failure.
type PubSub struct {
	client *pubsub.Client

	mu         sync.Mutex
	closed     bool
	publishers map[string]*pubsub.Publisher
}

// NewPubSub creates the client.
func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	if cfg.ProjectID == "" {
		return nil, ErrPubSubProjectRequired
	}

	c, err := pubsub.NewClient(ctx, cfg.ProjectID, cfg.ClientOptions...)
	if err != nil {
		return nil, fmt.Errorf("messaging: pubsub client: %w", err)
	}

	return &PubSub{client: c, publishers: map[string]*pubsub.Publisher{}}, nil
}

func (p *PubSub) publisher(topic string) (*pubsub.Publisher, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if pub, ok := p.publishers[topic]; ok {
		return pub, nil
	}

	pub := p.client.Publisher(topic)
	p.publishers[topic] = pub

	return pub, nil
}

func (p *PubSub) Publish(ctx context.Context, topic string, msg Message) error {
	if topic == "" {
		return ErrTopicRequired
	}

	pub, err := p.publisher(topic)
	if err != nil {
		return err
	}

	attrs := make(map[string]string, len(msg.Headers)+1)
	for k, v := range msg.Headers {
		attrs[k] = v
	}
	if msg.Key != "" {
		attrs[headerKey] = msg.Key
	}

	if _, err := pub.Publish(ctx, &pubsub.Message{Data: msg.Body, Attributes: attrs}).Get(ctx); err != nil {
		return fmt.Errorf("messaging: pubsub publish: %w", err)
	}

	return nil
}

func (p *PubSub) Subscribe(ctx context.Context, topic, group string, h Handler) error {
	if err := validateSubscribe(topic, group, h); err != nil {
		return err
	}

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}

	return p.client.Subscriber(group).Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		msg := Message{Key: m.Attributes[headerKey], Body: m.Data, Headers: make(map[string]string, len(m.Attributes))}
		for k, v := range m.Attributes {
			if k != headerKey {
				msg.Headers[k] = v
			}
		}

		if err := safeHandle(ctx, h, msg); err != nil {
			slog.WarnContext(ctx, "pubsub handler failed", "topic", topic, "subscription", group, "error", err)
			m.Nack()
			return
		}
		m.Ack()
	})
}

// Close stops every publisher and closes the client.
func (p *PubSub) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	pubs := p.publishers
	p.publishers = nil
	p.mu.Unlock()

	for _, pub := range pubs {
		pub.Stop()
	}

	return p.client.Close()
}
