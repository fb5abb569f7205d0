package messaging

import (
	"context"
	"log/slog"
	"maps"
	"sync"
)

// Memory is an in-process broker. Each group receives every message once,
// delivered to one of its subscribers in turn. Failed messages are not retried.
type Memory struct {
	mu     sync.RWMutex
	closed bool
	groups map[string]map[string]*memoryGroup
}

type memoryGroup struct {
	ch chan Message
}

// NewMemory returns an empty in-process broker.
func NewMemory() *Memory {
	return &Memory{groups: make(map[string]map[string]*memoryGroup)}
}

func (m *Memory) group(topic, group string) *memoryGroup {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.groups[topic] == nil {
		m.groups[topic] = make(map[string]*memoryGroup)
	}
	g, ok := m.groups[topic][group]
	if !ok {
		g = &memoryGroup{ch: make(chan Message, 256)}
		m.groups[topic][group] = g
	}

	return g
}

// Publish fans msg out to every group subscribed to topic without blocking.
// Messages for a topic with no groups, or for a full group, are dropped.
func (m *Memory) Publish(ctx context.Context, topic string, msg Message) error {
	if topic == "" {
		return ErrTopicRequired
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return ErrClosed
	}

	msg.Headers = maps.Clone(msg.Headers)
	for _, g := range m.groups[topic] {
		select {
		case g.ch <- msg:
		default:
			slog.WarnContext(ctx, "memory broker group is full, message dropped", "topic", topic)
		}
	}

	return nil
}

// Subscribe consumes topic for group until ctx is done.
func (m *Memory) Subscribe(ctx context.Context, topic, group string, h Handler) error {
	if err := validateSubscribe(topic, group, h); err != nil {
		return err
	}

	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	g := m.group(topic, group)
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-g.ch:
			if err := safeHandle(ctx, h, msg); err != nil {
				slog.WarnContext(ctx, "memory broker handler failed, message dropped", "topic", topic, "group", group, "error", err)
			}
		}
	}
}

// Close stops accepting publishes.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true

	return nil
}
