package entity

// Reason is the failure taxonomy. Only a fixed message reaches clients;
// reasons go to logs and to the throttle.
type Reason string

const (
	ReasonMalformedToken  Reason = "MALFORMED_TOKEN"
	ReasonNoMatch         Reason = "NO_MATCH"
	ReasonRateLimited     Reason = "RATE_LIMITED"
	ReasonLockedOut       Reason = "LOCKED_OUT"
	ReasonKnownBadToken   Reason = "KNOWN_BAD_TOKEN"
	ReasonActuatorFailure Reason = "ACTUATOR_FAILURE"
	ReasonStorageError    Reason = "STORAGE_ERROR"
)

// Detail refines NO_MATCH for server logs only.
type Detail string

const (
	DetailNoPrefixMatch Detail = "no_prefix_match"
	DetailDisabled      Detail = "disabled"
	DetailExpired       Detail = "expired"
	DetailCodeMismatch  Detail = "code_mismatch"
)

// VerificationResult is the outcome of checking one scan.
type VerificationResult struct {
	Success    bool
	Credential *Credential
	Reason     Reason
	Detail     Detail
	// Step is the matched TOTP counter on success.
	Step int64
}

// DoorStatus reports the actuator call that follows a granted scan.
type DoorStatus struct {
	Success bool
	Message string
	Details map[string]any
}
