package inbound

import "time"

type ScanRequest struct {
	Token string `json:"token"`
}

type ScanUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ScanDoorStatus struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type ScanResponse struct {
	Outcome              string          `json:"outcome"`
	Message              string          `json:"message"`
	State                string          `json:"state"`
	Failures             int             `json:"failures"`
	RetryAfterSeconds    int             `json:"retry_after_seconds,omitempty"`
	LockRemainingSeconds int             `json:"lock_remaining_seconds,omitempty"`
	User                 *ScanUser       `json:"user,omitempty"`
	DoorTriggered        bool            `json:"door_triggered,omitempty"`
	DoorStatus           *ScanDoorStatus `json:"door_status,omitempty"`
}

type TerminalStatusResponse struct {
	TerminalID           string     `json:"terminal_id"`
	State                string     `json:"state"`
	Failures             int        `json:"failures"`
	MaxFailures          int        `json:"max_failures"`
	Locked               bool       `json:"locked"`
	LockEndsAt           *time.Time `json:"lock_ends_at"`
	LockRemainingSeconds int        `json:"lock_remaining_seconds"`
	Capturing            bool       `json:"capturing"`
}
