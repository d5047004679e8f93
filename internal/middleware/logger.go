package middleware

import (
	"net/http"
	"time"

	"github.com/diewo77/invoice-api/auth"
	"github.com/rs/zerolog"
)

// Logger logs each request with method, path, status, duration and the
// request and user ids. 5xx responses are logged at error level.
func Logger(log zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			ev := log.Info()
			if sw.status >= http.StatusInternalServerError {
				ev = log.Error()
			}
			ev = ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", sw.status).
				Dur("duration", time.Since(start)).
				Str("request_id", RequestIDFromContext(r.Context()))
			if uid, ok := auth.UserIDFromContext(r.Context()); ok {
				ev = ev.Str("user_id", uid)
			}
			ev.Msg("http.request")
		})
	}
}
