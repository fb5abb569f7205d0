package inbound

import (
	"net/http"

	"github.com/shandysiswandi/gatepass/internal/pkg/router"
)

// HeaderTerminalKey carries the shared key of a terminal.
const HeaderTerminalKey = "X-Terminal-Key"

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.Public(http.MethodPost, "/api/v1/terminals/:id/scan")
	r.POST("/api/v1/terminals/:id/scan", end.Scan)

	r.Public(http.MethodGet, "/api/v1/terminals/:id/status")
	r.GET("/api/v1/terminals/:id/status", end.Status)

	r.Public(http.MethodGet, "/api/v1/terminals/:id/stream")
	r.GETRaw("/api/v1/terminals/:id/stream", http.HandlerFunc(end.Stream))

	r.POST("/api/v1/terminals/:id/unlock", end.Unlock)
}
