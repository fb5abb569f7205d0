package entity

import "time"

// Audit actions. A failed door call is recorded as ActionDoorOpenFailed
// followed by ": " and the error.
const (
	ActionEnter           = "enter"
	ActionDoorOpenSuccess = "door_open_success"
	ActionDoorOpenFailed  = "door_open_failed"
	ActionCreatedByAdmin  = "created_by_admin"
	ActionEnabledByAdmin  = "enabled_by_admin"
	ActionDisabledByAdmin = "disabled_by_admin"
	ActionDeletedByAdmin  = "deleted_by_admin"
)

// AuditEntry is one persisted access log line. CredentialID is empty for
// entries that outlive their credential.
type AuditEntry struct {
	ID           int64
	CredentialID string
	HolderName   string
	Action       string
	CreatedAt    time.Time
}

// SystemStatus is the admin dashboard snapshot.
type SystemStatus struct {
	StartTime             time.Time
	CurrentTime           time.Time
	CredentialCount       int64
	ActiveCredentialCount int64
	LogCount              int64
	LastActivity          *AuditEntry
}
