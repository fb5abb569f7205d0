// Package door calls the HTTP actuator that releases the door strike.
package door

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultEntityID = "script.open_door"
	maxBodyBytes    = 4 << 10
)

var ErrNotConfigured = errors.New("door actuator not configured")

type Config struct {
	URL      string
	APIKey   string
	EntityID string
	// MaxRetries bounds extra attempts after the first one. The caller's
	// context deadline still caps the whole call.
	MaxRetries uint64
	// Backoff is the first retry delay; later delays follow fibonacci.
	Backoff    time.Duration
	HTTPClient *http.Client
}

type Door struct {
	cfg    Config
	client *http.Client
	ins    instrument.Instrumentation
}

func New(cfg Config, ins instrument.Instrumentation) *Door {
	if cfg.EntityID == "" {
		cfg.EntityID = defaultEntityID
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 200 * time.Millisecond
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &Door{cfg: cfg, client: client, ins: ins}
}

type openRequest struct {
	EntityID string `json:"entity_id"`
}

// Open posts the open command. Network errors and 5xx answers are retried
// until ctx expires; any other non-2xx answer fails at once.
func (d *Door) Open(ctx context.Context, holder string) (details map[string]any, err error) {
	ctx, span := d.ins.Tracer("access.outbound.door").Start(ctx, "Open")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if d.cfg.URL == "" {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(openRequest{EntityID: d.cfg.EntityID})
	if err != nil {
		return nil, err
	}

	b := retry.NewFibonacci(d.cfg.Backoff)
	b = retry.WithCappedDuration(time.Second, b)
	b = retry.WithMaxRetries(d.cfg.MaxRetries, b)

	attempts := 0
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		attempts++

		status, body, err := d.post(ctx, payload)
		if err != nil {
			details = map[string]any{"error": err.Error()}
			return retry.RetryableError(err)
		}

		details = map[string]any{"status": status, "body": body}
		switch {
		case status >= http.StatusInternalServerError:
			return retry.RetryableError(fmt.Errorf("door actuator responded %d", status))
		case status < http.StatusOK || status >= http.StatusMultipleChoices:
			return fmt.Errorf("door actuator responded %d", status)
		}

		return nil
	})
	span.SetAttributes(attribute.Int("door.attempts", attempts), attribute.String("door.holder", holder))

	return details, err
}

func (d *Door) post(ctx context.Context, payload []byte) (int, any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if d.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.cfg.APIKey)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, nil
	}

	return resp.StatusCode, decodeBody(raw), nil
}

func decodeBody(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}

	return v
}
