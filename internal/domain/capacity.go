package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Capacity is a point-in-time view of one trip's seats: the total offered and
// the sum held by existing reservations.
type Capacity struct {
	TripID   uuid.UUID
	Total    int
	Reserved int
}

// Remaining returns the number of seats still free.
func (c Capacity) Remaining() int {
	if r := c.Total - c.Reserved; r > 0 {
		return r
	}
	return 0
}

// Fits reports whether seats more can be reserved.
func (c Capacity) Fits(seats int) bool {
	return c.Reserved+seats <= c.Total
}

// Admit decides whether req may be accepted against trip.
//
// reserved must be the current sum of seats across the trip's reservations
// and hasExisting whether req.UserID already holds one; both must be read
// inside the same critical section that will commit the reservation.
// Checks run in order: request shape, own trip, duplicate, capacity.
func Admit(trip Trip, reserved int, hasExisting bool, req ReservationRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if IsSelfReservation(trip, req.UserID) {
		return fmt.Errorf("%w: trip %s", ErrOwnTripReservation, trip.ID)
	}
	if hasExisting {
		return fmt.Errorf("%w: user already holds a reservation on trip %s", ErrDuplicateReservation, trip.ID)
	}
	c := Capacity{TripID: trip.ID, Total: trip.Seats, Reserved: reserved}
	if !c.Fits(req.Seats) {
		return fmt.Errorf("%w: requested %d seats, %d remaining", ErrCapacityExceeded, req.Seats, c.Remaining())
	}
	return nil
}
