package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReservationState is the lifecycle position of a reservation.
// A removed reservation no longer exists, so it has no state value.
type ReservationState string

const (
	StatePending ReservationState = "pending"
	StatePaid    ReservationState = "paid"
)

// Reservation is a user's claim on seats of one trip.
type Reservation struct {
	ID        uuid.UUID  `json:"id"`
	TripID    uuid.UUID  `json:"trip"`
	UserID    uuid.UUID  `json:"user"`
	Seats     int        `json:"seats"`
	Paid      bool       `json:"paid"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// OwnerID returns the reserving user.
func (r Reservation) OwnerID() uuid.UUID { return r.UserID }

// State derives the lifecycle state from the paid flag.
func (r Reservation) State() ReservationState {
	if r.Paid {
		return StatePaid
	}
	return StatePending
}

// ReservationRequest is the input to an admission decision.
type ReservationRequest struct {
	TripID uuid.UUID
	UserID uuid.UUID
	Seats  int
}

// Validate checks the request fields before any read happens.
func (r ReservationRequest) Validate() error {
	if r.TripID == uuid.Nil {
		return NewFieldError("trip", "is required")
	}
	if r.Seats < MinSeats || r.Seats > MaxSeats {
		return NewFieldError("seats", "must be between 1 and 10")
	}
	return nil
}

// Pay moves a pending reservation to paid on behalf of actor.
// Only the reserving user may pay, and only once.
func (r Reservation) Pay(actor uuid.UUID, at time.Time) (Reservation, error) {
	if err := RequireOwner(r, actor, "reservation"); err != nil {
		return Reservation{}, err
	}
	if r.State() == StatePaid {
		return Reservation{}, fmt.Errorf("%w: reservation %s", ErrAlreadyPaid, r.ID)
	}
	r.Paid = true
	r.PaidAt = &at
	return r, nil
}

// CheckRemovable reports whether actor may remove r.
// Paid reservations are terminal and cannot be removed.
func (r Reservation) CheckRemovable(actor uuid.UUID) error {
	if err := RequireOwner(r, actor, "reservation"); err != nil {
		return err
	}
	if r.State() == StatePaid {
		return fmt.Errorf("%w: paid reservations cannot be removed", ErrAlreadyPaid)
	}
	return nil
}
