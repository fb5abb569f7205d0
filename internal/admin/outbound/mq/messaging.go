package mq

import (
	"context"
	"encoding/json"
	"unicode/utf8"

	"github.com/shandysiswandi/gatepass/internal/admin/entity"
	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"github.com/shandysiswandi/gatepass/internal/pkg/messaging"
	"github.com/shandysiswandi/gatepass/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const (
	keyOfCorrelationID string = "cID"

	// column widths of the access log
	maxActorLen  = 100
	maxActionLen = 255
)

// Messaging writes admin actions into the access audit stream so they are
// listed beside door events.
type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	return string([]rune(s)[:n])
}

func (m *Messaging) PublishAdminAudit(ctx context.Context, e entity.AuditEntry) error {
	ctx, span := m.ins.Tracer("admin.outbound.mq").Start(ctx, "PublishAdminAudit")
	defer span.End()

	actor := truncate(e.Actor, maxActorLen)
	body, err := json.Marshal(event.AccessAuditMessage{
		ID:         e.ID,
		HolderName: actor,
		Action:     truncate(e.Action, maxActionLen),
		OccurredAt: e.CreatedAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.client.Publish(ctx, event.AccessAuditDestination, messaging.Message{
		Key:     actor,
		Body:    body,
		Headers: map[string]string{keyOfCorrelationID: instrument.GetCorrelationID(ctx)},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
