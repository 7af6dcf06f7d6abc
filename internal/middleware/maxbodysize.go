package middleware

import (
	"net/http"

	"github.com/goccy/go-json"
)

// NewMaxBodySizeHandler returns a middleware that caps request bodies at limit
// bytes. A declared Content-Length over the limit is refused with 413 before
// the handler runs; other bodies are wrapped in http.MaxBytesReader so the
// decoder fails once the limit is crossed.
func NewMaxBodySizeHandler(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]string{"code": "payload_too_large", "message": "request body too large"},
				})
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
