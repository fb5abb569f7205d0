package messaging

import (
	"context"
	"errors"
	"strings"
)

const (
	DriverMemory       = "memory"
	DriverNATS         = "nats"
	DriverNSQ          = "nsq"
	DriverKafka        = "kafka"
	DriverGooglePubSub = "google-pubsub"
)

// ErrUnknownDriver indicates an unsupported messaging driver.
var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions groups config for the supported brokers.
type FactoryOptions struct {
	NATS   NATSConfig
	NSQ    NSQConfig
	Kafka  KafkaConfig
	PubSub PubSubConfig
}

// NewFromDriver constructs a Messaging implementation by driver name.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Messaging, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverNATS:
		return asMessaging(NewNATS(opts.NATS))
	case DriverNSQ:
		return asMessaging(NewNSQ(opts.NSQ))
	case DriverKafka:
		return asMessaging(NewKafka(opts.Kafka))
	case DriverGooglePubSub:
		return asMessaging(NewPubSub(ctx, opts.PubSub))
	default:
		return nil, ErrUnknownDriver
	}
}

// asMessaging keeps a failed constructor from leaking a typed nil.
func asMessaging[T Messaging](m T, err error) (Messaging, error) {
	if err != nil {
		return nil, err
	}

	return m, nil
}
