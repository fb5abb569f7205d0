// Package archive stores audit log exports in object storage.
package archive

import (
	"bytes"
	"context"
	"time"

	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"github.com/shandysiswandi/gatepass/internal/pkg/storage"
	"go.opentelemetry.io/otel/codes"
)

const defaultURLTTL = 15 * time.Minute

type Archive struct {
	store storage.Storage
	ttl   time.Duration
	ins   instrument.Instrumentation
}

func New(store storage.Storage, ttl time.Duration, ins instrument.Instrumentation) *Archive {
	if ttl <= 0 {
		ttl = defaultURLTTL
	}

	return &Archive{store: store, ttl: ttl, ins: ins}
}

func (a *Archive) Upload(ctx context.Context, key string, data []byte, contentType string) (url string, err error) {
	ctx, span := a.ins.Tracer("access.outbound.archive").Start(ctx, "Upload")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := a.store.Put(ctx, key, bytes.NewReader(data), storage.Object{
		Size:        int64(len(data)),
		ContentType: contentType,
		Metadata:    map[string]string{"source": "gatepass-access-logs"},
	}); err != nil {
		return "", err
	}

	return a.store.PresignGet(ctx, key, a.ttl)
}
