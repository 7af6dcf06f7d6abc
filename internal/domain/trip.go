// Package domain contains the core data types and booking rules for the
// rideshare API: trips, reservations, favorites, and the pure functions that
// decide recurrence, admission, and ownership.
// This package has no infrastructure dependencies and is imported by every
// other internal package (repo, service, cache, handler).
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MinTripDuration is the shortest allowed gap between departure and arrival.
const MinTripDuration = 5 * time.Minute

// Seat bounds shared by trips and reservations.
const (
	MinSeats = 1
	MaxSeats = 10
)

// Repeat is the recurrence rule of a trip.
type Repeat string

const (
	RepeatNone    Repeat = "no"
	RepeatDaily   Repeat = "daily"
	RepeatWeekly  Repeat = "weekly"
	RepeatMonthly Repeat = "monthly"
)

// Valid reports whether r is one of the known rules.
func (r Repeat) Valid() bool {
	switch r {
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly:
		return true
	}
	return false
}

// LuggageSize is the largest luggage class the driver accepts.
type LuggageSize string

const (
	LuggageSmall  LuggageSize = "small"
	LuggageMedium LuggageSize = "medium"
	LuggageLarge  LuggageSize = "large"
)

func (l LuggageSize) Valid() bool {
	return l == LuggageSmall || l == LuggageMedium || l == LuggageLarge
}

// Talk is the driver's conversation preference.
type Talk string

const (
	TalkNo     Talk = "no"
	TalkLittle Talk = "little"
	TalkYes    Talk = "yes"
)

func (t Talk) Valid() bool {
	return t == TalkNo || t == TalkLittle || t == TalkYes
}

// Trip is one concrete, dated ride offer.
// Trips are immutable once created: the only correction path is delete and
// recreate. Instances expanded from the same create request share a SeriesID.
//
// Seats, LuggageSize, Talk and Smoke are a snapshot of the driver's
// preferences at creation time; they are never re-joined from the user.
type Trip struct {
	ID           uuid.UUID   `json:"id"`
	UserID       uuid.UUID   `json:"user"`
	SeriesID     uuid.UUID   `json:"series"`
	FromLocation string      `json:"from_location"`
	FromDate     time.Time   `json:"from_date"`
	ToLocation   string      `json:"to_location"`
	ToDate       time.Time   `json:"to_date"`
	Seats        int         `json:"seats"`
	LuggageSize  LuggageSize `json:"luggage_size"`
	Talk         Talk        `json:"talk"`
	Smoke        bool        `json:"smoke"`
	Repeat       Repeat      `json:"repeat"`
	EndRepeat    *time.Time  `json:"end_repeat,omitempty"` // nil when Repeat is RepeatNone
	CreatedAt    time.Time   `json:"created_at"`

	// Read projections, filled by list/get queries only.
	ReservedSeats int      `json:"reserved_seats"`
	Owner         *Profile `json:"owner,omitempty"`
}

// OwnerID returns the user who published the trip.
func (t Trip) OwnerID() uuid.UUID { return t.UserID }

// RemainingSeats is the capacity left according to the ReservedSeats
// projection. It is informational only; admission re-reads the store.
func (t Trip) RemainingSeats() int { return t.Seats - t.ReservedSeats }

// TripPreferences are the optional per-trip overrides of the owner's profile.
// Nil fields fall back to the profile value.
type TripPreferences struct {
	Seats       *int
	LuggageSize *LuggageSize
	Talk        *Talk
	Smoke       *bool
}

// ApplyPreferences fills the trip's preference snapshot from the overrides,
// falling back to the owner's profile for every unset field.
func (t *Trip) ApplyPreferences(p TripPreferences, owner User) {
	t.Seats = owner.Seats
	t.LuggageSize = owner.LuggageSize
	t.Talk = owner.Talk
	t.Smoke = owner.Smoke
	if p.Seats != nil {
		t.Seats = *p.Seats
	}
	if p.LuggageSize != nil {
		t.LuggageSize = *p.LuggageSize
	}
	if p.Talk != nil {
		t.Talk = *p.Talk
	}
	if p.Smoke != nil {
		t.Smoke = *p.Smoke
	}
}

// ValidateTrip enforces the field-level trip rules. Recurrence rules are
// checked by Expand.
func ValidateTrip(t Trip) error {
	if len(strings.TrimSpace(t.FromLocation)) < 2 {
		return NewFieldError("from_location", "must be at least 2 characters")
	}
	if len(strings.TrimSpace(t.ToLocation)) < 2 {
		return NewFieldError("to_location", "must be at least 2 characters")
	}
	if t.FromDate.IsZero() {
		return NewFieldError("from_date", "is required")
	}
	if !t.FromDate.Before(t.ToDate) {
		return NewFieldError("to_date", "must be after from_date")
	}
	if t.ToDate.Sub(t.FromDate) < MinTripDuration {
		return NewFieldError("to_date", "must be at least 5 minutes after from_date")
	}
	if t.Seats < MinSeats || t.Seats > MaxSeats {
		return NewFieldError("seats", "must be between 1 and 10")
	}
	if !t.LuggageSize.Valid() {
		return NewFieldError("luggage_size", "must be one of small, medium, large")
	}
	if !t.Talk.Valid() {
		return NewFieldError("talk", "must be one of no, little, yes")
	}
	if !t.Repeat.Valid() {
		return NewFieldError("repeat", "must be one of no, daily, weekly, monthly")
	}
	return nil
}

// TripFilter narrows a trip listing. Zero values mean "no constraint".
type TripFilter struct {
	From         string
	To           string
	DepartAfter  *time.Time
	DepartBefore *time.Time
	UserID       *uuid.UUID
	MinSeats     int
	// PopulateOwner attaches the owner's public profile to each trip.
	PopulateOwner bool
}
