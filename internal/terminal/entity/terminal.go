package entity

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidKeys = errors.New("terminal keys must be id:key pairs")

// OutcomeIgnored reports a repeated scan of the same code inside the capture
// cooldown. It never reaches the throttle.
const OutcomeIgnored = "ignored"

// Verdict is what the access service answered for one scan.
type Verdict struct {
	Success       bool
	Reason        string
	HolderID      string
	HolderName    string
	DoorTriggered bool
	Door          *DoorStatus
}

type DoorStatus struct {
	Success bool
	Message string
	Details map[string]any
}

// LockState is a persisted terminal lock.
type LockState struct {
	TerminalID string
	EndsAt     time.Time
}

// ParseKeys reads "id:key,id:key" into a map. Blank entries are skipped;
// the last key wins for a repeated ID.
func ParseKeys(raw string) (map[string]string, error) {
	keys := make(map[string]string)
	for entry := range strings.SplitSeq(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		id, key, ok := strings.Cut(entry, ":")
		id, key = strings.TrimSpace(id), strings.TrimSpace(key)
		if !ok || id == "" || key == "" {
			return nil, ErrInvalidKeys
		}
		keys[id] = key
	}

	return keys, nil
}
