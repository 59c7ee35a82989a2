package errors

import (
	"errors"
	"fmt"

	"marketplace/pkg/model"
)

var (
	ErrUnknownDomain = errors.New("unknown booking domain")

	ErrUnknownStatus = errors.New("unknown booking status")

	ErrNotFound = errors.New("reservation not found")

	ErrNotCancelable = errors.New("reservation cannot be cancelled in its current status")

	ErrCancelInFlight = errors.New("a cancellation for this reservation is already in progress")

	ErrSessionNotFound = errors.New("session not found or expired")
)

// FetchError scopes a load failure to one domain panel.
type FetchError struct {
	Domain model.Domain
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to load %s reservations: %v", e.Domain, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// MutationError is returned when the marketplace API refuses or fails a
// mutation. Local state is left untouched.
type MutationError struct {
	Domain model.Domain
	ID     string
	Err    error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("failed to cancel %s reservation %s: %v", e.Domain, e.ID, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}
