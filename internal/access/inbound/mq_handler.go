package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/gatepass/internal/access/usecase"
	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"github.com/shandysiswandi/gatepass/internal/pkg/messaging"
	"github.com/shandysiswandi/gatepass/internal/pkg/uid"
	"github.com/shandysiswandi/gatepass/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   ucConsumer
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cID := msg.Header(keyOfCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}

	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

// RecordAccessAudit persists one audit event. Undecodable bodies are dropped
// because redelivery cannot fix them.
func (h *MQHandler) RecordAccessAudit(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("access.inbound.mq").Start(ctx, "RecordAccessAudit")
	defer span.End()

	var payload event.AccessAuditMessage
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse access audit message", "msg_body", string(msg.Body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeAccessAudit(ctx, usecase.ConsumeAccessAuditInput{
		ID:           payload.ID,
		CredentialID: payload.CredentialID,
		HolderName:   payload.HolderName,
		Action:       payload.Action,
		OccurredAt:   payload.OccurredAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to record access audit", "audit_id", payload.ID, "error", err)
		return err
	}

	return nil
}
