package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPMetrics struct {
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	gatherer         prometheus.Gatherer
}

// NewHTTPMetrics registers the request collectors on registry. Tests pass a
// fresh prometheus.NewRegistry() so repeated construction does not panic.
func NewHTTPMetrics(registry *prometheus.Registry) *HTTPMetrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "esnafdefter_http_request_duration_seconds",
			Help:    "Latency of HTTP requests by route, method and status.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"route", "method", "status"},
	)
	requestsInFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "esnafdefter_http_requests_in_flight",
		Help: "HTTP requests currently being served.",
	})
	registry.MustRegister(requestDuration, requestsInFlight)

	return &HTTPMetrics{
		requestDuration:  requestDuration,
		requestsInFlight: requestsInFlight,
		gatherer:         registry,
	}
}

func (m *HTTPMetrics) Started() {
	m.requestsInFlight.Inc()
}

// Finished records one request. An empty route (no match) is reported as
// "unmatched" to keep label cardinality bounded.
func (m *HTTPMetrics) Finished(route string, method string, status int, elapsed time.Duration) {
	m.requestsInFlight.Dec()
	if route == "" {
		route = "unmatched"
	}
	m.requestDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func (m *HTTPMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
