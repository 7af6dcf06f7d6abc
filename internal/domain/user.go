package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is the identity collaborator's view of an account: the profile fields
// the booking core needs. Credentials are not part of this model.
type User struct {
	ID          uuid.UUID   `json:"id"`
	Email       string      `json:"email"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Vehicle     string      `json:"vehicle"`
	Seats       int         `json:"seats"`
	LuggageSize LuggageSize `json:"luggage_size"`
	Talk        Talk        `json:"talk"`
	Smoke       bool        `json:"smoke"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Profile returns the public subset of the user shown next to their trips.
func (u User) Profile() Profile {
	return Profile{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Vehicle:     u.Vehicle,
		LuggageSize: u.LuggageSize,
		Talk:        u.Talk,
		Smoke:       u.Smoke,
	}
}

// Profile is the public part of a User.
type Profile struct {
	ID          uuid.UUID   `json:"id"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name"`
	Vehicle     string      `json:"vehicle"`
	LuggageSize LuggageSize `json:"luggage_size"`
	Talk        Talk        `json:"talk"`
	Smoke       bool        `json:"smoke"`
}

// MinNameLength is the shortest first or last name accepted.
const MinNameLength = 2

// ProfileUpdate carries the fields a user may change on themselves.
// Nil fields are left untouched. Email and the first+last name pair must stay
// unique across users; the store reports a clash as a FieldError with Reason
// "exists" on "email" or "username".
type ProfileUpdate struct {
	Email       *string
	FirstName   *string
	LastName    *string
	Vehicle     *string
	Seats       *int
	LuggageSize *LuggageSize
	Talk        *Talk
	Smoke       *bool
}

// Apply returns u with the non-nil fields of p applied, or a validation error.
func (p ProfileUpdate) Apply(u User) (User, error) {
	if p.Email != nil {
		email := strings.TrimSpace(*p.Email)
		if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
			return User{}, NewFieldError("email", "must be a valid email address")
		}
		u.Email = email
	}
	if p.FirstName != nil {
		name := strings.TrimSpace(*p.FirstName)
		if len([]rune(name)) < MinNameLength {
			return User{}, NewFieldError("first_name", "must be at least 2 characters")
		}
		u.FirstName = name
	}
	if p.LastName != nil {
		name := strings.TrimSpace(*p.LastName)
		if len([]rune(name)) < MinNameLength {
			return User{}, NewFieldError("last_name", "must be at least 2 characters")
		}
		u.LastName = name
	}
	if p.Vehicle != nil {
		u.Vehicle = *p.Vehicle
	}
	if p.Seats != nil {
		if *p.Seats < MinSeats || *p.Seats > MaxSeats {
			return User{}, NewFieldError("seats", "must be between 1 and 10")
		}
		u.Seats = *p.Seats
	}
	if p.LuggageSize != nil {
		if !p.LuggageSize.Valid() {
			return User{}, NewFieldError("luggage_size", "must be one of small, medium, large")
		}
		u.LuggageSize = *p.LuggageSize
	}
	if p.Talk != nil {
		if !p.Talk.Valid() {
			return User{}, NewFieldError("talk", "must be one of no, little, yes")
		}
		u.Talk = *p.Talk
	}
	if p.Smoke != nil {
		u.Smoke = *p.Smoke
	}
	return u, nil
}
