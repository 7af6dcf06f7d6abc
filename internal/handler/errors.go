package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/pkordes/rideshare/internal/domain"
	"github.com/pkordes/rideshare/internal/middleware"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable machine code and a human-readable message.
// Field names the offending input for validation failures.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// errorMapping is checked in order; ErrInvalidRecurrence must precede
// ErrValidation.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrInvalidRecurrence, http.StatusUnprocessableEntity, "invalid_recurrence"},
	{domain.ErrValidation, http.StatusUnprocessableEntity, "validation_error"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrNotOwner, http.StatusForbidden, "not_owner"},
	{domain.ErrOwnTripReservation, http.StatusConflict, "own_trip_reservation"},
	{domain.ErrDuplicateReservation, http.StatusConflict, "duplicate_reservation"},
	{domain.ErrCapacityExceeded, http.StatusConflict, "capacity_exceeded"},
	{domain.ErrAlreadyPaid, http.StatusConflict, "already_paid"},
	{domain.ErrHasActiveReservations, http.StatusConflict, "has_active_reservations"},
	{domain.ErrAlreadyFavorited, http.StatusConflict, "already_favorited"},
	{middleware.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
}

// writeError maps err onto a status and error code. Unmapped errors become
// 500 and are logged; their text never reaches the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: ErrorDetail{
			Code: "payload_too_large", Message: "request body too large",
		}})
		return
	}

	for _, m := range errorMapping {
		if !errors.Is(err, m.err) {
			continue
		}
		detail := ErrorDetail{Code: m.code, Message: publicMessage(err, m.err)}
		var fe *domain.FieldError
		if errors.As(err, &fe) {
			detail.Field = fe.Field
			detail.Message = fe.Field + " " + fe.Reason
		}
		writeJSON(w, m.status, ErrorResponse{Error: detail})
		return
	}

	s.log.ErrorContext(r.Context(), "unhandled error",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{
		Code: "internal_error", Message: "internal server error",
	}})
}

// publicMessage drops the "pkg.Type.Method: " wrapping prefixes so the client
// sees the sentinel text and whatever detail follows it.
// e.g. "service.Ledger.TryReserve: capacity exceeded: requested 2 seats, 1 remaining"
// becomes "capacity exceeded: requested 2 seats, 1 remaining".
func publicMessage(err, sentinel error) string {
	msg := err.Error()
	if i := strings.Index(msg, sentinel.Error()); i >= 0 {
		return msg[i:]
	}
	return sentinel.Error()
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
