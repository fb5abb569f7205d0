package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/gatepass/internal/access/entity"
	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"github.com/shandysiswandi/gatepass/internal/pkg/messaging"
	"github.com/shandysiswandi/gatepass/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishAccessAudit(ctx context.Context, e entity.AuditEntry) error {
	ctx, span := m.ins.Tracer("access.outbound.mq").Start(ctx, "PublishAccessAudit")
	defer span.End()

	body, err := json.Marshal(event.AccessAuditMessage{
		ID:           e.ID,
		CredentialID: e.CredentialID,
		HolderName:   e.HolderName,
		Action:       e.Action,
		OccurredAt:   e.CreatedAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	// entries of one credential share a partition so they stay ordered
	if err := m.client.Publish(ctx, event.AccessAuditDestination, messaging.Message{
		Key:     e.CredentialID,
		Body:    body,
		Headers: map[string]string{keyOfCorrelationID: instrument.GetCorrelationID(ctx)},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
