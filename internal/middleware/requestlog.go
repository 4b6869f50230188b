package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// responseWriter wraps http.ResponseWriter to capture status and size.
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

const holderKey key = "user_holder"

// userHolder lets RequestLog see the user authenticated further down the chain.
type userHolder struct {
	u  User
	ok bool
}

func (h *userHolder) user() (User, bool) { return h.u, h.ok }

// RequestLog logs each request with request_id, method, path, status, duration, size and user.
// Use after RequestID middleware so the ID is available. Uses slog for structured logging.
func RequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrap := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		holder := &userHolder{}
		next.ServeHTTP(wrap, r.WithContext(context.WithValue(r.Context(), holderKey, holder)))
		dur := time.Since(start)
		reqID := chimw.GetReqID(r.Context())
		attrs := []any{
			"request_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrap.status,
			"duration_ms", dur.Milliseconds(),
			"size", wrap.size,
		}
		// JWTMiddleware runs inside this one, so the user is only visible via the holder.
		if u, ok := holder.user(); ok {
			attrs = append(attrs, "user", u.Username)
		}
		level := slog.LevelInfo
		if wrap.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(r.Context(), level, "request", attrs...)
	})
}
