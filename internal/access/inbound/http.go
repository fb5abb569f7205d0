package inbound

import (
	"net/http"

	"github.com/shandysiswandi/gatepass/internal/pkg/router"
)

func RegisterHTTPEndpoint(r *router.Router, uc uc, limiter router.Limiter) {
	end := &HTTPEndpoint{uc: uc}

	r.Public(http.MethodPost, "/api/v1/access/verify")
	r.POST("/api/v1/access/verify", end.Verify, router.RateLimitByIP("access_verify", limiter))

	r.Public(http.MethodGet, "/api/v1/access/credentials/:id/pass")
	r.GET("/api/v1/access/credentials/:id/pass", end.GetPass)

	r.POST("/api/v1/access/credentials", end.CreateCredential)
	r.GET("/api/v1/access/credentials", end.ListCredentials)
	r.GET("/api/v1/access/credentials/:id", end.GetCredential)
	r.POST("/api/v1/access/credentials/:id/toggle-status", end.ToggleCredential)
	r.DELETE("/api/v1/access/credentials/:id", end.DeleteCredential)

	r.GET("/api/v1/access/logs", end.ListLogs)
	r.POST("/api/v1/access/logs/export", end.ExportLogs)
	r.GET("/api/v1/access/status", end.Status)
}
