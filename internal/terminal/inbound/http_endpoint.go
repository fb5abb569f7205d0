package inbound

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shandysiswandi/gatepass/internal/pkg/router"
	"github.com/shandysiswandi/gatepass/internal/terminal/usecase"
)

const pingInterval = 25 * time.Second

type HTTPEndpoint struct {
	uc uc
}

func (h *HTTPEndpoint) Scan(r *router.Request) (any, error) {
	var req ScanRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	out, err := h.uc.Scan(r.Context(), usecase.ScanInput{
		TerminalID: r.GetParam("id"),
		Key:        r.Header.Get(HeaderTerminalKey),
		Token:      req.Token,
	})
	if err != nil {
		return nil, err
	}

	resp := ScanResponse{
		Outcome:              out.Outcome,
		Message:              out.Message,
		State:                string(out.Status.State),
		Failures:             out.Status.Failures,
		RetryAfterSeconds:    out.RetryAfterSeconds,
		LockRemainingSeconds: out.Status.LockRemainingSeconds,
	}
	if v := out.Verdict; v != nil && v.Success {
		resp.User = &ScanUser{ID: v.HolderID, Name: v.HolderName}
		resp.DoorTriggered = v.DoorTriggered
		if v.Door != nil {
			resp.DoorStatus = &ScanDoorStatus{Success: v.Door.Success, Message: v.Door.Message, Details: v.Door.Details}
		}
	}

	return router.Raw{Body: resp}, nil
}

func (h *HTTPEndpoint) Unlock(r *router.Request) (any, error) {
	out, err := h.uc.Unlock(r.Context(), usecase.TerminalIDInput{ID: r.GetParam("id")})
	if err != nil {
		return nil, err
	}

	return toStatusResponse(*out), nil
}

func (h *HTTPEndpoint) Status(r *router.Request) (any, error) {
	out, err := h.uc.Status(r.Context(), usecase.TerminalAuthInput{
		ID:  r.GetParam("id"),
		Key: r.Header.Get(HeaderTerminalKey),
	})
	if err != nil {
		return nil, err
	}

	return toStatusResponse(*out), nil
}

// Stream pushes terminal status changes as server-sent events. Browsers
// cannot set headers on an EventSource, so the key may come in ?key=.
func (h *HTTPEndpoint) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := &router.Request{Request: r}

	key := r.Header.Get(HeaderTerminalKey)
	if key == "" {
		key = req.GetQuery("key")
	}

	stream, err := h.uc.Stream(ctx, usecase.TerminalAuthInput{ID: req.GetParam("id"), Key: key})
	if err != nil {
		router.WriteError(ctx, w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		slog.ErrorContext(ctx, "failed to send response connected", "error", err)
		return
	}
	flusher.Flush()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case evt, ok := <-stream:
			if !ok {
				return
			}
			payload, err := json.Marshal(toStatusResponse(evt.Status))
			if err != nil {
				slog.ErrorContext(ctx, "failed to marshal terminal status", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Kind, payload); err != nil {
				slog.ErrorContext(ctx, "failed to send terminal event", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

func toStatusResponse(st usecase.StatusOutput) TerminalStatusResponse {
	return TerminalStatusResponse{
		TerminalID:           st.TerminalID,
		State:                string(st.State),
		Failures:             st.Failures,
		MaxFailures:          st.MaxFailures,
		Locked:               st.Locked,
		LockEndsAt:           st.LockEndsAt,
		LockRemainingSeconds: st.LockRemainingSeconds,
		Capturing:            st.Capturing,
	}
}
