package router

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const maxLoggedBodyBytes = 32 * 1024

var errHijackUnsupported = errors.New("hijack not supported")

// statusRecorder captures the status, size and a capped copy of the body.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	body   bytes.Buffer
	capped bool
	err    error
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	if room := maxLoggedBodyBytes - w.body.Len(); room > 0 {
		w.body.Write(p[:min(len(p), room)])
		w.capped = w.capped || len(p) > room
	} else if len(p) > 0 {
		w.capped = true
	}

	n, err := w.ResponseWriter.Write(p)
	w.bytes += n

	return n, err
}

// SetError lets the endpoint hand its error to the span.
func (w *statusRecorder) SetError(err error) {
	w.err = err
}

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errHijackUnsupported
	}

	return h.Hijack()
}

func (w *statusRecorder) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}

	return w.status
}

func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}

	return r.URL.Path
}

// loggableBody returns the body as a string; JSON strings are masked by the
// instrument log handler.
func loggableBody(b []byte, capped bool) any {
	switch {
	case len(b) == 0:
		return nil
	case !utf8.Valid(b):
		return "<binary body omitted>"
	case capped:
		return string(b) + "...(truncated)"
	default:
		return string(b)
	}
}

func peekRequestBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}

	//nolint:errcheck // best effort for logging only
	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBodyBytes))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(head), r.Body))

	return head
}

// flatHeaders turns headers into a map the log masker understands.
func flatHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = strings.Join(v, ",")
	}

	return out
}

func middlewareObservability(ins instrument.Instrumentation) Middleware {
	if ins == nil {
		ins = instrument.NewNoop()
	}

	tracer := ins.Tracer("http.server")
	meter := ins.Meter("http.server")

	requestCounter, err := meter.Int64Counter("http.server.requests", metric.WithDescription("Number of HTTP requests received"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}

	duration, err := meter.Float64Histogram("http.server.duration", metric.WithDescription("HTTP request duration in milliseconds"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			start := time.Now()

			ctx, span := tracer.Start(r.Context(), r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
				),
			)
			defer span.End()

			slog.InfoContext(ctx, "request received",
				"method", r.Method,
				"path", route,
				"uri", r.RequestURI,
				"remote_ip", r.RemoteAddr,
				"headers", flatHeaders(r.Header),
				"body", loggableBody(peekRequestBody(r), false),
			)

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.statusCode()
			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			}

			if rec.err != nil {
				span.RecordError(rec.err)
			}
			switch {
			case status >= http.StatusInternalServerError && rec.err != nil:
				span.SetStatus(codes.Error, rec.err.Error())
			case status >= http.StatusInternalServerError:
				span.SetStatus(codes.Error, http.StatusText(status))
			default:
				span.SetStatus(codes.Ok, "")
			}
			span.SetAttributes(append(attrs,
				attribute.String("http.user_agent", r.UserAgent()),
				attribute.Int("http.response_content_length", rec.bytes),
			)...)

			if requestCounter != nil {
				requestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
			}
			if duration != nil {
				duration.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(attrs...))
			}

			slog.InfoContext(ctx, "response sent",
				"method", r.Method,
				"path", route,
				"status", status,
				"bytes", rec.bytes,
				"latency_ms", time.Since(start).Milliseconds(),
				"body", loggableBody(rec.body.Bytes(), rec.capped),
			)
		})
	}
}
