package entity

import "time"

// Admin actions recorded in the access audit log. Actions that name a
// target admin carry its email after the colon.
const (
	ActionLogin           = "admin_login"
	ActionLoginFailed     = "admin_login_failed"
	ActionCreated         = "admin_created"
	ActionDeleted         = "admin_deleted"
	ActionEnabled         = "admin_enabled"
	ActionDisabled        = "admin_disabled"
	ActionPasswordSet     = "admin_password_set"
	ActionNameUpdated     = "admin_name_updated"
	ActionPasswordUpdated = "admin_password_updated"
	ActionEmailUpdated    = "admin_email_updated"
)

// AuditEntry is one admin action. Actor is the email of the admin acting, or
// the email tried on a failed login.
type AuditEntry struct {
	ID        int64
	Actor     string
	Action    string
	CreatedAt time.Time
}
