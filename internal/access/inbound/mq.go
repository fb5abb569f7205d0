package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/gatepass/internal/pkg/config"
	"github.com/shandysiswandi/gatepass/internal/pkg/goroutine"
	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"github.com/shandysiswandi/gatepass/internal/pkg/messaging"
	"github.com/shandysiswandi/gatepass/internal/pkg/uid"
	"github.com/shandysiswandi/gatepass/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Subscriber,
	uuid uid.StringID,
	uc ucConsumer,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.access.consumer_names")

	var consumers = []struct {
		name    string
		topic   string
		handler messaging.Handler
	}{
		{
			name:    event.AccessAuditConsumerRecorder,
			topic:   event.AccessAuditDestination,
			handler: mqHandler.RecordAccessAudit,
		},
	}

	for _, consumer := range consumers {
		if !slices.Contains(enableConsumerNames, consumer.name) {
			continue
		}

		started := routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(ctx, "running consumer", "consumer", consumer.name, "topic", consumer.topic)
			return messenger.Subscribe(pCtx, consumer.topic, consumer.name, consumer.handler)
		})
		if !started {
			slog.WarnContext(ctx, "consumer not started, background workers stopped", "consumer", consumer.name)
		}
	}
}
