package mq

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/gatepass/internal/admin/entity"
	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"github.com/shandysiswandi/gatepass/internal/pkg/messaging"
	"github.com/shandysiswandi/gatepass/internal/shared/event"
)

type recordingPublisher struct {
	topic string
	msg   messaging.Message
	err   error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, msg messaging.Message) error {
	p.topic = topic
	p.msg = msg
	return p.err
}

func TestMessaging_PublishAdminAudit(t *testing.T) {
	at := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		actor      string
		action     string
		wantActor  string
		wantAction string
	}{
		{
			name: "email as holder", actor: "root@gatepass.local", action: entity.ActionLogin,
			wantActor: "root@gatepass.local", wantAction: entity.ActionLogin,
		},
		{
			name: "long values truncated", actor: strings.Repeat("é", 120), action: entity.ActionCreated + ": " + strings.Repeat("x", 300),
			wantActor: strings.Repeat("é", 100), wantAction: (entity.ActionCreated + ": " + strings.Repeat("x", 300))[:255],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			pub := &recordingPublisher{}
			m := NewMessaging(pub, instrument.NewNoop())
			ctx := instrument.SetCorrelationID(context.Background(), "cid-9")

			// Act
			err := m.PublishAdminAudit(ctx, entity.AuditEntry{ID: 7, Actor: tt.actor, Action: tt.action, CreatedAt: at})

			// Assert
			if err != nil {
				t.Fatalf("PublishAdminAudit error: %v", err)
			}
			if pub.topic != event.AccessAuditDestination || pub.msg.Header(keyOfCorrelationID) != "cid-9" {
				t.Fatalf("published topic=%q msg=%+v", pub.topic, pub.msg)
			}

			var got event.AccessAuditMessage
			if err := json.Unmarshal(pub.msg.Body, &got); err != nil {
				t.Fatalf("body is not JSON: %v", err)
			}
			if got.ID != 7 || got.CredentialID != "" || got.HolderName != tt.wantActor || got.Action != tt.wantAction || !got.OccurredAt.Equal(at) {
				t.Fatalf("body = %+v", got)
			}
		})
	}
}

func TestMessaging_PublishAdminAudit_Error(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	m := NewMessaging(pub, instrument.NewNoop())

	if err := m.PublishAdminAudit(context.Background(), entity.AuditEntry{ID: 1, Actor: "a@b.co"}); err == nil {
		t.Fatalf("expected publish error")
	}
}
