package inbound

import (
	"net/http"
	"time"
)

type VerifyRequest struct {
	Token string `json:"token"`
}

type VerifyUserResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type DoorStatusResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type VerifyResponse struct {
	Success       bool                `json:"success"`
	User          *VerifyUserResponse `json:"user,omitempty"`
	DoorTriggered bool                `json:"door_triggered,omitempty"`
	DoorStatus    *DoorStatusResponse `json:"door_status,omitempty"`
	Message       string              `json:"message"`
}

type CreateCredentialRequest struct {
	Name        string `json:"name"`
	IsTemporary bool   `json:"is_temporary"`
	ExpiryDays  int    `json:"expiry_days"`
}

type CredentialResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	IsDisabled  bool       `json:"is_disabled"`
	IsTemporary bool       `json:"is_temporary"`
	ExpiresAt   *time.Time `json:"expires_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

type CredentialDetailResponse struct {
	CredentialResponse

	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`

	created bool
}

func (r CredentialDetailResponse) StatusCode() int {
	if r.created {
		return http.StatusCreated
	}

	return http.StatusOK
}

func (r CredentialDetailResponse) Message() string {
	if r.created {
		return "credential has been created"
	}

	return "request has been successfully"
}

type CredentialsResponse struct {
	Credentials []CredentialResponse `json:"credentials"`
}

type PassResponse struct {
	Name             string     `json:"name"`
	Payload          string     `json:"payload"`
	RemainingSeconds int        `json:"remaining_seconds"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
}

type AuditEntryResponse struct {
	ID           int64     `json:"id,string"`
	CredentialID *string   `json:"credential_id"`
	Name         string    `json:"name"`
	Action       string    `json:"action"`
	CreatedAt    time.Time `json:"created_at"`
}

type AuditEntriesResponse struct {
	Logs []AuditEntryResponse `json:"logs"`
}

type ExportLogsResponse struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	Count     int       `json:"count"`
	ExpiresAt time.Time `json:"expires_at"`
}

type StatusResponse struct {
	UptimeSeconds         int64               `json:"uptime_seconds"`
	StartTime             time.Time           `json:"start_time"`
	CurrentTime           time.Time           `json:"current_time"`
	CredentialCount       int64               `json:"credential_count"`
	ActiveCredentialCount int64               `json:"active_credential_count"`
	LogCount              int64               `json:"log_count"`
	LastActivity          *AuditEntryResponse `json:"last_activity"`
}
