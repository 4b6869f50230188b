package middleware

import (
	"net/http"
)

// DefaultMaxBodyBytes bounds JSON and form bodies (1 MiB). Bulk imports go
// through the CLI one record at a time.
const DefaultMaxBodyBytes = 1 << 20

// MaxBytes caps request bodies. A declared Content-Length over the cap is
// refused with 413 up front; otherwise reads past the cap fail and the
// handler reports 413 itself.
func MaxBytes(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > maxBytes {
				writeError(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
