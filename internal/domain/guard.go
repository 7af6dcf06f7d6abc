package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Owned is implemented by every entity that belongs to exactly one user.
type Owned interface {
	OwnerID() uuid.UUID
}

// IsOwner reports whether user owns e.
func IsOwner(e Owned, user uuid.UUID) bool {
	return e.OwnerID() == user
}

// IsSelfReservation reports whether user would be reserving their own trip.
func IsSelfReservation(trip Trip, user uuid.UUID) bool {
	return IsOwner(trip, user)
}

// RequireOwner returns ErrNotOwner unless user owns e.
// what names the entity in the error message (e.g. "trip").
func RequireOwner(e Owned, user uuid.UUID, what string) error {
	if !IsOwner(e, user) {
		return fmt.Errorf("%w: %s belongs to another user", ErrNotOwner, what)
	}
	return nil
}
