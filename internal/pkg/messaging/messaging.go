// Package messaging is a small broker-agnostic publish/subscribe layer.
//
// Drivers: NATS, NSQ, Kafka, Google Pub/Sub, and an in-process memory broker
// for local runs and tests. A Handler returning nil acknowledges the message;
// an error asks the broker for redelivery where the broker supports it.
package messaging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/gatepass/internal/pkg/stacktrace"
)

var (
	// ErrClosed is returned when the client has been closed.
	ErrClosed = errors.New("messaging: client closed")
	// ErrTopicRequired is returned when a topic is empty.
	ErrTopicRequired = errors.New("messaging: topic is required")
	// ErrGroupRequired is returned when a subscriber group is empty.
	ErrGroupRequired = errors.New("messaging: group is required")
	// ErrHandlerRequired is returned when Subscribe gets a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
)

// Message is a broker-agnostic message.
type Message struct {
	// Key is the partition key (Kafka) or ordering key (Pub/Sub).
	Key string
	// Body is the payload.
	Body []byte
	// Headers carry metadata such as the correlation ID.
	Headers map[string]string
}

// Header returns the header value for key, or "".
func (m Message) Header(key string) string {
	return m.Headers[key]
}

// Handler processes a received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher publishes messages to a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg Message) error
}

// Subscriber consumes a topic as part of a named group; each message is
// delivered to one member of the group. Subscribe blocks until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, topic, group string, h Handler) error
}

// Messaging is a broker client that can publish and subscribe.
type Messaging interface {
	io.Closer
	Publisher
	Subscriber
}

func validateSubscribe(topic, group string, h Handler) error {
	switch {
	case topic == "":
		return ErrTopicRequired
	case group == "":
		return ErrGroupRequired
	case h == nil:
		return ErrHandlerRequired
	}

	return nil
}

// safeHandle runs h and turns a panic into an error so one bad message does
// not stop the consumer.
func safeHandle(ctx context.Context, h Handler, msg Message) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			slog.ErrorContext(ctx, "panic in message handler", "panic", rvr,
				"stack", stacktrace.InternalPaths(debug.Stack()))
			err = errPanic
		}
	}()

	return h(ctx, msg)
}

var errPanic = errors.New("messaging: handler panicked")
