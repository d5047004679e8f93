package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/diewo77/invoice-api/internal/metrics"
	"github.com/gorilla/mux"
)

// UnmatchedPath labels requests that matched no route.
const UnmatchedPath = "unmatched"

// Metrics records request counts and latency labelled with the route
// template, so /invoices/{id} is one series. Use it with mux.Router.Use.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		path := UnmatchedPath
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				path = tpl
			}
		}
		metrics.HTTPTotalRequests.WithLabelValues(path, r.Method, strconv.Itoa(sw.status)).Inc()
		metrics.HTTPResponseDuration.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
	})
}
