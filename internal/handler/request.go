package handler

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/rideshare/internal/domain"
	"github.com/pkordes/rideshare/internal/middleware"
	"github.com/pkordes/rideshare/internal/validation"
)

// decodeBody reads a JSON body into dst and runs its validate tags.
// Unknown fields are rejected so typos in preference names do not pass
// silently.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return err
		case errors.Is(err, io.EOF):
			return domain.NewFieldError("body", "is required")
		default:
			return domain.NewFieldError("body", "must be valid JSON")
		}
	}
	return validation.Struct(dst)
}

// actor returns the authenticated caller. Routes behind requireAuth always
// have one; a missing value is a wiring bug.
func actor(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		return uuid.Nil, middleware.ErrUnauthenticated
	}
	return id, nil
}

// pathUUID binds a UUID path parameter.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		return uuid.Nil, domain.NewFieldError(name, "must be a UUID")
	}
	return id, nil
}

// pathString binds a string path parameter, undoing percent-encoding.
func pathString(r *http.Request, name string) (string, error) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		return "", domain.NewFieldError(name, "is malformed")
	}
	return v, nil
}

// bindQuery binds an optional form-style query parameter into dest, which
// must be a pointer to a pointer so absence stays distinguishable.
func bindQuery(q url.Values, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, q, dest); err != nil {
		return domain.NewFieldError(name, "is malformed")
	}
	return nil
}

// requireQuery binds a required form-style query parameter into dest.
func requireQuery(q url.Values, name string, dest any) error {
	if !q.Has(name) {
		return domain.NewFieldError(name, "is required")
	}
	if err := runtime.BindQueryParameter("form", true, true, name, q, dest); err != nil {
		return domain.NewFieldError(name, "is malformed")
	}
	return nil
}
