package handler

import (
	"net/http"

	"github.com/pkordes/rideshare/internal/domain"
)

// updateProfileRequest is the body of PUT /me. Omitted fields keep their
// current value.
type updateProfileRequest struct {
	Email       *string             `json:"email,omitempty" validate:"omitempty,email"`
	FirstName   *string             `json:"first_name,omitempty" validate:"omitempty,min=2"`
	LastName    *string             `json:"last_name,omitempty" validate:"omitempty,min=2"`
	Vehicle     *string             `json:"vehicle,omitempty" validate:"omitempty,max=100"`
	Seats       *int                `json:"seats,omitempty" validate:"omitempty,min=1,max=10"`
	LuggageSize *domain.LuggageSize `json:"luggage_size,omitempty" validate:"omitempty,oneof=small medium large"`
	Talk        *domain.Talk        `json:"talk,omitempty" validate:"omitempty,oneof=no little yes"`
	Smoke       *bool               `json:"smoke,omitempty"`
}

// GetMe handles GET /me.
func (s *Server) GetMe(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	u, err := s.users.Me(r.Context(), actorID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// GetUser handles GET /users/{id}: anyone's public profile.
func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.users.Profile(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdateMe handles PUT /me: the caller's name, email and default trip
// preferences. A taken email or name answers 422 with code validation_error,
// field email or username and message "<field> exists".
func (s *Server) UpdateMe(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateProfileRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	u, err := s.users.UpdateProfile(r.Context(), actorID, domain.ProfileUpdate{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Vehicle:     req.Vehicle,
		Seats:       req.Seats,
		LuggageSize: req.LuggageSize,
		Talk:        req.Talk,
		Smoke:       req.Smoke,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// DeleteMe handles DELETE /me. Trips and reservations must be removed first;
// until then it answers 409 has_active_reservations.
func (s *Server) DeleteMe(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.users.Delete(r.Context(), actorID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
