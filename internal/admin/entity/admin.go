package entity

import (
	"errors"
	"time"
)

// ErrLastActiveAdmin is returned by the store when a change would leave no
// enabled admin.
var ErrLastActiveAdmin = errors.New("last active admin")

// Admin is an operator allowed to manage credentials and terminals.
type Admin struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	IsDisabled   bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
}
