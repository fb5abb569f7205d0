//go:build integration

package lockstore

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gatepass/internal/pkg/clock"
	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"github.com/shandysiswandi/gatepass/internal/terminal/entity"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate redis: %v", err)
		}
	})

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("redis uri: %v", err)
	}
	opt, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatalf("parse redis uri: %v", err)
	}
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestRedis_LockRoundTrip(t *testing.T) {
	// Arrange
	client := newRedis(t)
	store := NewRedis(client, "test:lock:", clock.New(), instrument.NewNoop())
	ctx := context.Background()
	endsAt := time.Now().Add(time.Minute).Truncate(time.Millisecond)

	// Act
	if err := store.SaveLock(ctx, entity.LockState{TerminalID: "front", EndsAt: endsAt}); err != nil {
		t.Fatalf("SaveLock error: %v", err)
	}
	got, err := store.GetLock(ctx, "front")

	// Assert
	if err != nil || got == nil || !got.EndsAt.Equal(endsAt) {
		t.Fatalf("GetLock = %+v, %v", got, err)
	}
	if ttl := client.PTTL(ctx, "test:lock:front").Val(); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("ttl = %v", ttl)
	}

	if err := store.DeleteLock(ctx, "front"); err != nil {
		t.Fatalf("DeleteLock error: %v", err)
	}
	if got, err := store.GetLock(ctx, "front"); err != nil || got != nil {
		t.Fatalf("after delete = %+v, %v", got, err)
	}
}

func TestRedis_ElapsedLockIsNotStored(t *testing.T) {
	client := newRedis(t)
	store := NewRedis(client, "test:lock:", clock.New(), instrument.NewNoop())
	ctx := context.Background()

	err := store.SaveLock(ctx, entity.LockState{TerminalID: "back", EndsAt: time.Now().Add(-time.Second)})

	if err != nil {
		t.Fatalf("SaveLock error: %v", err)
	}
	if got, _ := store.GetLock(ctx, "back"); got != nil {
		t.Fatalf("elapsed lock stored: %+v", got)
	}
}
