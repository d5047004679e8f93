// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	prometheus.MustRegister(HTTPTotalRequests)
	prometheus.MustRegister(HTTPResponseDuration)
	prometheus.MustRegister(InvoicesRendered)
}

const (
	LabelPath   = "path"
	LabelCode   = "code"
	LabelMethod = "method"
	LabelEngine = "engine"
	LabelResult = "result"
)

const namespace = "invoiceapi"

var (
	histogramBuckets = []float64{.01, .05, .1, .25, .5, 1, 5, 10}

	// HTTPTotalRequests counts requests by route template, method and status code.
	HTTPTotalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Number of total requests.",
		},
		[]string{LabelPath, LabelMethod, LabelCode})

	// HTTPResponseDuration tracks response time by route template and method.
	HTTPResponseDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_response_time_seconds",
		Help:      "Duration of HTTP response.",
		Buckets:   histogramBuckets,
	}, []string{LabelPath, LabelMethod})

	// InvoicesRendered counts PDF renders by engine and outcome.
	InvoicesRendered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_rendered_total",
			Help:      "Number of invoice PDFs rendered.",
		},
		[]string{LabelEngine, LabelResult})
)

// ObserveRender records one PDF render.
func ObserveRender(engine string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	InvoicesRendered.WithLabelValues(engine, result).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
