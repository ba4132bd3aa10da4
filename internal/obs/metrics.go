package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	authzDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Authorization gate decisions by outcome.",
		},
		[]string{"outcome"},
	)

	auditWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_writes_total",
			Help: "Audit record writes by result.",
		},
		[]string{"result"},
	)
)

// Init registers all service metrics in the default registry.
func Init() {
	prometheus.MustRegister(httpInFlight, httpRequestsTotal, httpRequestDuration, authzDecisions, auditWrites)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveAuthzDecision counts one gate decision (allowed, unauthenticated,
// forbidden, error).
func ObserveAuthzDecision(outcome string) {
	authzDecisions.WithLabelValues(outcome).Inc()
}

// ObserveAuditWrite counts one audit insert attempt (ok, error).
func ObserveAuditWrite(result string) {
	auditWrites.WithLabelValues(result).Inc()
}

// Instrument wraps a handler with request count, latency and in-flight
// metrics.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// CanonicalPath collapses resource identifiers so metric label cardinality
// stays bounded.
func CanonicalPath(raw string) string {
	path := raw
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	parts := strings.Split(strings.Trim(path, "/"), "/")
	// /api/admin/<collection>/<id>[/<sub>]
	if len(parts) >= 4 && parts[0] == "api" && parts[1] == "admin" {
		switch parts[2] {
		case "users", "warnings", "listings", "posts", "events":
			parts[3] = ":id"
			if len(parts) > 5 {
				return path
			}
			return "/" + strings.Join(parts, "/")
		}
	}
	return path
}

// statusWriter records the response code for metric labels.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
