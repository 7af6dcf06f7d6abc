package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. location too short, arrival before departure).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrInvalidRecurrence is returned when a repeat rule cannot produce at least
// one repetition (missing or too-early end date) or would produce too many.
var ErrInvalidRecurrence = errors.New("invalid recurrence")

// ErrNotOwner is returned when the acting user does not own the trip,
// reservation, or favorite being mutated.
var ErrNotOwner = errors.New("not owner")

// ErrOwnTripReservation is returned when a user tries to reserve seats on a
// trip they published themselves.
var ErrOwnTripReservation = errors.New("cannot reserve own trip")

// ErrDuplicateReservation is returned when the user already holds a
// reservation on the trip.
var ErrDuplicateReservation = errors.New("duplicate reservation")

// ErrCapacityExceeded is returned when the requested seats do not fit in the
// trip's remaining capacity.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// ErrAlreadyPaid is returned when paying or removing a reservation that has
// already been paid.
var ErrAlreadyPaid = errors.New("already paid")

// ErrHasActiveReservations is returned when removing a trip that still has
// reservations attached, or an account that still publishes trips or holds
// reservations.
var ErrHasActiveReservations = errors.New("has active reservations")

// ErrAlreadyFavorited is returned when the (article, user) pair is already
// favorited.
var ErrAlreadyFavorited = errors.New("already favorited")

// FieldError describes a single offending input field.
// It unwraps to ErrValidation (or to Err when set) so callers can keep using
// errors.Is while handlers can still report the field name.
type FieldError struct {
	Field  string
	Reason string
	Err    error
}

// NewFieldError returns a FieldError that wraps ErrValidation.
func NewFieldError(field, reason string) *FieldError {
	return &FieldError{Field: field, Reason: reason, Err: ErrValidation}
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s %s", e.Unwrap(), e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	if e.Err == nil {
		return ErrValidation
	}
	return e.Err
}
