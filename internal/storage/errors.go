package storage

import "errors"

// Waitlist store errors. Backends return these unwrapped so callers can match
// them with errors.Is regardless of driver.
var (
	// ErrDuplicateKey is returned by Insert when the email is already on the waitlist.
	// Entries are never updated in place.
	ErrDuplicateKey = errors.New("duplicate key: email already on waitlist")

	// ErrInvalidInput is returned by Insert for a nil entry or an empty email.
	ErrInvalidInput = errors.New("invalid input")
)
