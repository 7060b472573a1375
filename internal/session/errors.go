package session

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when a submission arrives while another one of the
	// same session is still in flight.
	ErrBusy = errors.New("session is busy")
	// ErrInputLocked is returned for a SCRAPE chat submission before any
	// scrape result exists.
	ErrInputLocked = errors.New("chat input is locked until a scrape job is submitted")
)

// NotFoundError is returned when a session id is unknown to the manager or
// belongs to another identity.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("session not found: %s", e.ID)
}
