package inbound

import (
	"net/http"

	"github.com/shandysiswandi/gatepass/internal/pkg/router"
)

func RegisterHTTPEndpoint(r *router.Router, uc uc, limiter router.Limiter) {
	end := &HTTPEndpoint{uc: uc}

	r.Public(http.MethodPost, "/api/v1/admin/login")
	r.POST("/api/v1/admin/login", end.Login, router.RateLimitByIP("admin_login", limiter))

	r.GET("/api/v1/admin/me", end.Me)
	r.PUT("/api/v1/admin/me/name", end.UpdateMyName)
	r.PUT("/api/v1/admin/me/password", end.UpdateMyPassword)
	r.PUT("/api/v1/admin/me/email", end.UpdateMyEmail)

	r.GET("/api/v1/admin/admins", end.ListAdmins)
	r.POST("/api/v1/admin/admins", end.CreateAdmin)
	r.DELETE("/api/v1/admin/admins/:id", end.DeleteAdmin)
	r.POST("/api/v1/admin/admins/:id/toggle-status", end.ToggleAdminStatus)
	r.POST("/api/v1/admin/admins/:id/password", end.SetAdminPassword)
}
