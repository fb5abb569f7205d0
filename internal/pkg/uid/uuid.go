package uid

import "github.com/google/uuid"

// UUID generates time-ordered v7 strings for correlation and token IDs.
type UUID struct{}

func NewUUID() *UUID {
	return &UUID{}
}

// Generate falls back to a random v4 when no v7 can be produced.
func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}

	return uuid.NewString()
}
