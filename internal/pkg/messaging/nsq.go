package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nsqio/go-nsq"
)

// ErrNSQAddrRequired is returned when neither nsqd nor lookupd addresses are set.
var ErrNSQAddrRequired = errors.New("messaging: nsq nsqd or lookupd address is required")

// NSQConfig configures the NSQ driver.
type NSQConfig struct {
	// NSQDAddr is the nsqd TCP address used for publishing, and for
	// consuming when no lookupd is configured.
	NSQDAddr string
	// LookupdAddrs are nsqlookupd HTTP addresses used for consuming.
	LookupdAddrs []string
	MaxInFlight  int
}

// NSQ carries headers and key in a JSON envelope because NSQ messages are
// opaque bytes. A failed handler requeues the message.
type NSQ struct {
	cfg      NSQConfig
	producer *nsq.Producer

	mu        sync.Mutex
	closed    bool
	consumers []*nsq.Consumer
}

type nsqEnvelope struct {
	Key     string            `json:"key,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    []byte            `json:"body"`
}

// NewNSQ creates the producer; consumers are created per Subscribe.
func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	if cfg.NSQDAddr == "" && len(cfg.LookupdAddrs) == 0 {
		return nil, ErrNSQAddrRequired
	}

	n := &NSQ{cfg: cfg}
	if cfg.NSQDAddr != "" {
		p, err := nsq.NewProducer(cfg.NSQDAddr, nsq.NewConfig())
		if err != nil {
			return nil, fmt.Errorf("messaging: nsq producer: %w", err)
		}
		p.SetLoggerLevel(nsq.LogLevelError)
		n.producer = p
	}

	return n, nil
}

func encodeNSQ(msg Message) ([]byte, error) {
	return json.Marshal(nsqEnvelope{Key: msg.Key, Headers: msg.Headers, Body: msg.Body})
}

func decodeNSQ(b []byte) (Message, error) {
	var env nsqEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Message{}, err
	}

	return Message{Key: env.Key, Headers: env.Headers, Body: env.Body}, nil
}

func (n *NSQ) Publish(ctx context.Context, topic string, msg Message) error {
	if topic == "" {
		return ErrTopicRequired
	}
	if n.producer == nil {
		return ErrNSQAddrRequired
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	n.mu.Lock()
	closed := n.closed
	n.mu.Unlock()
	if closed {
		return ErrClosed
	}

	body, err := encodeNSQ(msg)
	if err != nil {
		return err
	}

	if err := n.producer.Publish(topic, body); err != nil {
		return fmt.Errorf("messaging: nsq publish: %w", err)
	}

	return nil
}

func (n *NSQ) Subscribe(ctx context.Context, topic, group string, h Handler) error {
	if err := validateSubscribe(topic, group, h); err != nil {
		return err
	}

	cfg := nsq.NewConfig()
	if n.cfg.MaxInFlight > 0 {
		cfg.MaxInFlight = n.cfg.MaxInFlight
	}

	consumer, err := nsq.NewConsumer(topic, group, cfg)
	if err != nil {
		return fmt.Errorf("messaging: nsq consumer: %w", err)
	}
	consumer.SetLoggerLevel(nsq.LogLevelError)
	consumer.AddHandler(nsq.HandlerFunc(func(m *nsq.Message) error {
		msg, err := decodeNSQ(m.Body)
		if err != nil {
			// not ours; finish it so it is not redelivered forever
			slog.WarnContext(ctx, "nsq message is not an envelope, dropping", "topic", topic, "error", err)
			return nil
		}

		return safeHandle(ctx, h, msg)
	}))

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return ErrClosed
	}
	n.consumers = append(n.consumers, consumer)
	n.mu.Unlock()

	if len(n.cfg.LookupdAddrs) > 0 {
		err = consumer.ConnectToNSQLookupds(n.cfg.LookupdAddrs)
	} else {
		err = consumer.ConnectToNSQD(n.cfg.NSQDAddr)
	}
	if err != nil {
		consumer.Stop()
		return fmt.Errorf("messaging: nsq connect: %w", err)
	}

	select {
	case <-ctx.Done():
		consumer.Stop()
		<-consumer.StopChan
	case <-consumer.StopChan:
	}

	return nil
}

// Close stops consumers and the producer.
func (n *NSQ) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	consumers := n.consumers
	n.consumers = nil
	n.mu.Unlock()

	for _, c := range consumers {
		c.Stop()
		<-c.StopChan
	}
	if n.producer != nil {
		n.producer.Stop()
	}

	return nil
}
