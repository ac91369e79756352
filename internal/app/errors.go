package app

import (
	"errors"
	"fmt"

	"github.com/avelov/huddle/internal/domain"
)

var ErrNoProfile = errors.New("no profile for connection identity")

// CapacityError rejects an admission when a user is already at its
// connection cap. The transport adapter translates it into a refused
// upgrade; nothing in the hub state changes.
type CapacityError struct {
	Identity domain.UserID
	Limit    int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("user %s at connection limit %d", e.Identity, e.Limit)
}
