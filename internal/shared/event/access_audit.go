package event

import "time"

const AccessAuditDestination string = "gatepass_access_audit"
const AccessAuditConsumerRecorder string = "gatepass_access_audit_recorder"

// AccessAuditMessage is one access log line in flight to the recorder.
type AccessAuditMessage struct {
	ID           int64     `json:"id,string"`
	CredentialID string    `json:"credential_id,omitempty"`
	HolderName   string    `json:"holder_name"`
	Action       string    `json:"action"`
	OccurredAt   time.Time `json:"occurred_at"`
}
