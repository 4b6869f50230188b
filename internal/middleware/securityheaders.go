package middleware

import (
	"net/http"
)

// Content security policies for the JSON API and the HTML UI.
const (
	APIContentSecurityPolicy = "default-src 'none'; frame-ancestors 'none'"
	WebContentSecurityPolicy = "default-src 'self'; style-src 'self' 'unsafe-inline'; form-action 'self'; frame-ancestors 'none'"
)

// SecurityOptions selects the headers SecurityHeaders sets.
type SecurityOptions struct {
	CSP string
	// HSTS adds Strict-Transport-Security; only set it when serving TLS.
	HSTS bool
	// NoStore marks responses uncacheable. The API sets it since every
	// answer depends on the caller's token.
	NoStore bool
}

func SecurityHeaders(opts SecurityOptions) func(http.Handler) http.Handler {
	if opts.CSP == "" {
		opts.CSP = APIContentSecurityPolicy
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Content-Security-Policy", opts.CSP)
			if opts.NoStore {
				h.Set("Cache-Control", "no-store")
			}
			if opts.HSTS {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}
