package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// corsMaxAge is how long, in seconds, browsers may cache a preflight result.
const corsMaxAge = 600

// NewCORSHandler returns a middleware that applies CORS headers for the given
// origins. Each origin is scheme + host with no trailing slash. The bearer
// token travels in Authorization, so that header is always allowed, and the
// request ID set by chi is exposed so browser clients can quote it.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         corsMaxAge,
	})
	return c.Handler
}
