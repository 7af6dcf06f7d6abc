package handler

import (
	"net/http"

	"github.com/google/uuid"
)

// createReservationRequest is the body of POST /reservations.
type createReservationRequest struct {
	Trip  uuid.UUID `json:"trip" validate:"required"`
	Seats int       `json:"seats" validate:"required,min=1,max=10"`
}

// CreateReservation handles POST /reservations.
func (s *Server) CreateReservation(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req createReservationRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.reservations.Create(r.Context(), actorID, req.Trip, req.Seats)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ListMyReservations handles GET /reservations, newest first.
func (s *Server) ListMyReservations(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	list, err := s.reservations.ListMine(r.Context(), actorID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

// PayReservation handles POST /reservations/{id}/pay.
func (s *Server) PayReservation(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	paid, err := s.reservations.Pay(r.Context(), actorID, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paid)
}

// RemoveReservation handles DELETE /reservations/{id} and answers with the
// removed reservation.
func (s *Server) RemoveReservation(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	removed, err := s.reservations.Remove(r.Context(), actorID, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}
