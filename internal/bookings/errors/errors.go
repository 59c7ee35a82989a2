package errors

import (
	"errors"
	"fmt"

	"marketplace/pkg/model"
)

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStatusMismatch is returned by the repository when a compare-and-set
	// finds the booking outside the expected source states.
	ErrStatusMismatch = errors.New("booking status changed concurrently")
)

// InvalidTransitionError reports a lifecycle operation attempted from a state
// that does not allow it. Nothing is written when it is returned.
type InvalidTransitionError struct {
	BookingID   string
	From        model.CanonicalStatus
	AttemptedOp model.BookingOp
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s booking %s in status %s", e.AttemptedOp, e.BookingID, e.From)
}

// StatusMismatchError carries the status the repository actually found.
type StatusMismatchError struct {
	Current model.CanonicalStatus
}

func (e *StatusMismatchError) Error() string {
	return fmt.Sprintf("%s: current status %s", ErrStatusMismatch, e.Current)
}

func (e *StatusMismatchError) Unwrap() error {
	return ErrStatusMismatch
}
