// Package router wraps httprouter with the application's handler signature,
// JSON envelopes and middleware chain.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/gatepass/internal/pkg/config"
	"github.com/shandysiswandi/gatepass/internal/pkg/goerror"
	"github.com/shandysiswandi/gatepass/internal/pkg/instrument"
	"github.com/shandysiswandi/gatepass/internal/pkg/jwt"
	"github.com/shandysiswandi/gatepass/internal/pkg/uid"
	"github.com/shandysiswandi/gatepass/internal/pkg/validator"
)

type errorResponse struct {
	Message string            `json:"message"`
	Error   map[string]string `json:"error,omitempty"`
}

type successResponse struct {
	Message string         `json:"message"`
	Data    any            `json:"data"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Handler is the application-style handler used by this router.
//
// It returns a response payload (wrapped in the success envelope unless it is
// a Raw) or an error rendered by the error codec.
type Handler func(r *Request) (any, error)

// Middleware wraps an http.Handler.
type Middleware func(next http.Handler) http.Handler

// Chain applies mws to h so that mws[0] is the outermost handler.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}

	return h
}

// Raw is a response written as-is, without the success envelope. Endpoints
// with a fixed wire contract (for example the scanner verify call) use it.
type Raw struct {
	Status int
	Body   any
}

// Config holds dependencies required to build a Router.
type Config struct {
	Config     config.Config
	UUID       uid.StringID
	JWT        jwt.JWT
	Instrument instrument.Instrumentation
}

// Router is an http.Handler that wraps httprouter and a middleware chain.
type Router struct {
	hr  *httprouter.Router
	mws []Middleware

	mu     sync.RWMutex
	public map[string]map[string]struct{}
}

// NewRouter builds the default application router with standard middleware.
func NewRouter(cfg Config) *Router {
	hr := &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		SaveMatchedRoutePath:   true,
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "endpoint not found"}, http.StatusNotFound)
		}),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "method not allowed"}, http.StatusMethodNotAllowed)
		}),
	}

	ro := &Router{
		hr: hr,
		public: map[string]map[string]struct{}{
			http.MethodGet: {"/health": {}},
		},
	}

	ro.mws = []Middleware{
		middlewareRecoverer,
		middlewareIP,
		middlewareCorrelationID(cfg.UUID),
		middlewareObservability(cfg.Instrument),
		middlewareMaintenance(cfg.Config),
		middlewareAuthentication(cfg.JWT, ro.isPublic),
	}

	hr.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	})

	return ro
}

// Public marks method+path as reachable without an admin token. Routes must be
// marked before the server starts accepting requests.
func (r *Router) Public(method, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.public[method] == nil {
		r.public[method] = make(map[string]struct{})
	}
	r.public[method][path] = struct{}{}
}

func (r *Router) isPublic(method, path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.public[method][path]

	return ok
}

func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodGet, path, h, mws...)
}

// GETRaw registers a GET endpoint that writes directly to the response
// writer, such as a server-sent event stream.
func (r *Router) GETRaw(path string, h http.Handler, mws ...Middleware) {
	r.hr.Handler(http.MethodGet, path, Chain(h, append(r.mws, mws...)...))
}

func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPost, path, h, mws...)
}

func (r *Router) PUT(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPut, path, h, mws...)
}

func (r *Router) DELETE(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodDelete, path, h, mws...)
}

func (r *Router) endpoint(method, path string, h Handler, mws ...Middleware) {
	r.hr.Handler(method, path, Chain(http.HandlerFunc(func(w http.ResponseWriter, re *http.Request) {
		resp, err := h(&Request{Request: re})
		if err != nil {
			if setter, ok := w.(interface{ SetError(error) }); ok {
				setter.SetError(err)
			}
			writeError(re.Context(), w, err)
			return
		}
		writeOK(w, resp)
	}), append(r.mws, mws...)...))
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}

// WriteError renders err the way a Handler error is rendered. Raw handlers
// use it before they start streaming.
func WriteError(ctx context.Context, w http.ResponseWriter, err error) {
	writeError(ctx, w, err)
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	gerr, ok := goerror.As(err)
	if !ok {
		slog.ErrorContext(ctx, "unclassified handler error", "error", err)
		writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	resp := errorResponse{Message: gerr.Msg()}

	var errValidate validator.V10ValidationError
	if errors.As(err, &errValidate) {
		resp.Error = errValidate.Values()
	} else if len(gerr.Fields()) > 0 {
		resp.Error = gerr.Fields()
	}

	writeJSON(w, resp, gerr.StatusCode())
}

func writeOK(w http.ResponseWriter, resp any) {
	if raw, ok := resp.(Raw); ok {
		status := raw.Status
		if status == 0 {
			status = http.StatusOK
		}
		writeJSON(w, raw.Body, status)
		return
	}

	code := http.StatusOK
	if sc, ok := resp.(interface{ StatusCode() int }); ok {
		code = sc.StatusCode()
	}

	if code == http.StatusNoContent || resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	msg := "request has been successfully"
	if m, ok := resp.(interface{ Message() string }); ok {
		msg = m.Message()
	}

	var meta map[string]any
	if m, ok := resp.(interface{ Meta() map[string]any }); ok {
		meta = m.Meta()
	}

	writeJSON(w, successResponse{Message: msg, Data: resp, Meta: meta}, code)
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("server: failed to encode data to json", "error", err)
	}
}
