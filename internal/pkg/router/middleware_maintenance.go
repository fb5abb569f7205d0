package router

import (
	"net/http"
	"slices"

	"github.com/shandysiswandi/gatepass/internal/pkg/config"
)

// middlewareMaintenance rejects routes listed in app.maintenance.endpoints.
// The list is read per request so a config reload takes effect immediately.
func middlewareMaintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		if cfg == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(cfg.GetArray("app.maintenance.endpoints"), matchedRoutePath(r)) {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
