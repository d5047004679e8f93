package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/diewo77/invoice-api/httpx"
	"github.com/rs/zerolog"
)

// Recovery turns a panic into a 500 JSON response. The stack is logged
// always and returned to the caller only outside production.
func Recovery(log zerolog.Logger, production bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				stack := string(debug.Stack())
				log.Error().
					Interface("error", rec).
					Str("stack", stack).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("request_id", RequestIDFromContext(r.Context())).
					Msg("panic recovered")
				msg := fmt.Sprint(rec)
				body := httpx.ErrorResponse{Error: msg, Message: msg}
				if !production {
					body.Stack = stack
				}
				httpx.JSON(w, http.StatusInternalServerError, body)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
