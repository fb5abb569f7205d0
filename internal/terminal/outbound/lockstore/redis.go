// Package lockstore keeps terminal locks in Redis so a restart does not lift
// them early.
package lockstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gatepass/internal/pkg/clock"
	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"github.com/shandysiswandi/gatepass/internal/terminal/entity"
)

const defaultPrefix = "gatepass:terminal:lock:"

type Redis struct {
	client redis.Cmdable
	prefix string
	clock  clock.Clocker
	ins    instrument.Instrumentation
}

func NewRedis(client redis.Cmdable, prefix string, clk clock.Clocker, ins instrument.Instrumentation) *Redis {
	if prefix == "" {
		prefix = defaultPrefix
	}

	return &Redis{client: client, prefix: prefix, clock: clk, ins: ins}
}

func (r *Redis) key(id string) string { return r.prefix + id }

// SaveLock stores the lock end and lets Redis expire the key with it. An
// already elapsed lock is removed instead.
func (r *Redis) SaveLock(ctx context.Context, lock entity.LockState) error {
	ctx, span := r.ins.Tracer("terminal.outbound.lockstore").Start(ctx, "SaveLock")
	defer span.End()

	ttl := lock.EndsAt.Sub(r.clock.Now())
	if ttl <= 0 {
		return r.client.Del(ctx, r.key(lock.TerminalID)).Err()
	}

	if err := r.client.Set(ctx, r.key(lock.TerminalID), lock.EndsAt.UTC().Format(time.RFC3339Nano), ttl).Err(); err != nil {
		return fmt.Errorf("save terminal lock: %w", err)
	}

	return nil
}

func (r *Redis) GetLock(ctx context.Context, terminalID string) (*entity.LockState, error) {
	ctx, span := r.ins.Tracer("terminal.outbound.lockstore").Start(ctx, "GetLock")
	defer span.End()

	val, err := r.client.Get(ctx, r.key(terminalID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get terminal lock: %w", err)
	}

	endsAt, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return nil, fmt.Errorf("parse terminal lock %q: %w", val, err)
	}

	return &entity.LockState{TerminalID: terminalID, EndsAt: endsAt}, nil
}

func (r *Redis) DeleteLock(ctx context.Context, terminalID string) error {
	ctx, span := r.ins.Tracer("terminal.outbound.lockstore").Start(ctx, "DeleteLock")
	defer span.End()

	return r.client.Del(ctx, r.key(terminalID)).Err()
}
