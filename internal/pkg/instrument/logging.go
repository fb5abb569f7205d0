package instrument

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const maskedValue = "***"

// SetupLogging installs the default slog logger: JSON to stdout, mirrored to
// the OTLP log pipeline when lp is not nil, with masking and correlation IDs.
func SetupLogging(cfg *Config, lp *sdklog.LoggerProvider) {
	slog.SetDefault(slog.New(NewHandler(os.Stdout, cfg, lp)))
}

// NewHandler builds the handler chain used by SetupLogging.
func NewHandler(w io.Writer, cfg *Config, lp *sdklog.LoggerProvider) slog.Handler {
	var base slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       parseLevel(cfg.LogLevel),
		AddSource:   true,
		ReplaceAttr: renameAttr,
	})

	if lp != nil {
		base = fanout{base, otelslog.NewHandler(cfg.ServiceName, otelslog.WithLoggerProvider(lp))}
	}

	return &contextHandler{
		Handler: &maskHandler{next: base, keys: buildMaskKeys(cfg.MaskFields)},
		service: cfg.ServiceName,
	}
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}

	return lvl
}

func renameAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		_, rel, found := strings.Cut(src.File, "/internal/")
		if !found {
			return slog.Attr{}
		}
		return slog.String("file", fmt.Sprintf("internal/%s:%d", rel, src.Line))
	}

	return a
}

type contextHandler struct {
	slog.Handler
	service string
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if cID := GetCorrelationID(ctx); cID != "" {
		r.AddAttrs(slog.String("_cID", cID))
	}
	if h.service != "" {
		r.AddAttrs(slog.String("service", h.service))
	}

	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs), service: h.service}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name), service: h.service}
}

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}

	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}

	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}

	return out
}

// maskHandler replaces the values of sensitive keys, including keys nested
// in groups, maps and JSON-looking strings.
type maskHandler struct {
	next slog.Handler
	keys map[string]struct{}
}

func (h *maskHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *maskHandler) Handle(ctx context.Context, r slog.Record) error {
	if len(h.keys) == 0 {
		return h.next.Handle(ctx, r)
	}

	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.mask(a))
		return true
	})

	return h.next.Handle(ctx, out)
}

func (h *maskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = h.mask(a)
	}

	return &maskHandler{next: h.next.WithAttrs(masked), keys: h.keys}
}

func (h *maskHandler) WithGroup(name string) slog.Handler {
	return &maskHandler{next: h.next.WithGroup(name), keys: h.keys}
}

func (h *maskHandler) sensitive(key string) bool {
	_, ok := h.keys[strings.ToLower(key)]
	return ok
}

func (h *maskHandler) mask(a slog.Attr) slog.Attr {
	if h.sensitive(a.Key) {
		return slog.String(a.Key, maskedValue)
	}

	switch a.Value.Kind() {
	case slog.KindGroup:
		group := a.Value.Group()
		masked := make([]slog.Attr, len(group))
		for i, ga := range group {
			masked[i] = h.mask(ga)
		}
		a.Value = slog.GroupValue(masked...)

	case slog.KindString:
		if s, ok := h.maskJSON([]byte(a.Value.String())); ok {
			a.Value = slog.StringValue(s)
		}

	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case map[string]any:
			a.Value = slog.AnyValue(h.maskTree(v))
		case map[string]string:
			m := make(map[string]any, len(v))
			for k, s := range v {
				m[k] = s
			}
			a.Value = slog.AnyValue(h.maskTree(m))
		case []any:
			a.Value = slog.AnyValue(h.maskTree(v))
		case []byte:
			if s, ok := h.maskJSON(v); ok {
				a.Value = slog.StringValue(s)
			}
		}
	}

	return a
}

func (h *maskHandler) maskJSON(b []byte) (string, bool) {
	if len(b) == 0 || (b[0] != '{' && b[0] != '[') {
		return "", false
	}

	var tree any
	if err := json.Unmarshal(b, &tree); err != nil {
		return "", false
	}

	out, err := json.Marshal(h.maskTree(tree))
	if err != nil {
		return "", false
	}

	return string(out), true
}

func (h *maskHandler) maskTree(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			if h.sensitive(k) {
				out[k] = maskedValue
				continue
			}
			out[k] = h.maskTree(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = h.maskTree(child)
		}
		return out
	default:
		return v
	}
}

func buildMaskKeys(fields []string) map[string]struct{} {
	keys := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			keys[f] = struct{}{}
		}
	}

	return keys
}
