// Package domain contains entities without logic, just meta-data
package domain

import (
	"errors"
	"time"
)

const MaxEmailLen = 254

var (
	ErrEmptyIdentity = errors.New("identity empty")
	ErrEmailTooLong  = errors.New("email too long")
)

// UserID is the stable key of one authenticated principal. It is handed
// to us by the session layer and never minted or rewritten here.
type UserID string

// Profile is the presence record for one user. It exists only while the
// user has at least one open connection. ConnectedAt marks the start of
// the presence episode, not per-socket timing.
type Profile struct {
	ID          UserID    `json:"userId"`
	Email       string    `json:"email"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// NewProfile is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewProfile(id UserID, email string, at time.Time) (*Profile, error) {
	if id == "" {
		return nil, ErrEmptyIdentity
	}
	if len(email) > MaxEmailLen {
		return nil, ErrEmailTooLong
	}
	return &Profile{ID: id, Email: email, ConnectedAt: at}, nil
}
