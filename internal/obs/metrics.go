// Package obs exposes the HTTP Prometheus metrics.
package obs

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "henritrip_http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "henritrip_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "henritrip_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Init registers the metrics in the default registry. Call it once.
func Init() {
	prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

type routeKey struct{}

type routeLabel struct {
	pattern string
}

// SetRoute records the matched route pattern so that the request is labelled
// by pattern rather than by raw path. It is a no-op outside Instrument.
func SetRoute(r *http.Request, pattern string) {
	if label, ok := r.Context().Value(routeKey{}).(*routeLabel); ok {
		label.pattern = pattern
	}
}

// Route returns the pattern recorded by SetRoute, if any.
func Route(ctx context.Context) string {
	if label, ok := ctx.Value(routeKey{}).(*routeLabel); ok {
		return label.pattern
	}
	return ""
}

// Instrument measures in-flight requests, request counts and latency.
// Requests that match no route are labelled "unmatched".
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		label := &routeLabel{pattern: "unmatched"}
		r = r.WithContext(context.WithValue(r.Context(), routeKey{}, label))

		httpInFlight.Inc()
		defer httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		status := strconv.Itoa(sw.code)
		httpRequestDuration.WithLabelValues(r.Method, label.pattern, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(r.Method, label.pattern, status).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
