// Package metrics exposes Prometheus metrics for the lunago service.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lunago_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lunago_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	framesComputedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lunago_frames_computed_total",
			Help: "Total number of constellation frames computed.",
		},
	)

	frameComputeSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lunago_frame_compute_seconds",
			Help:    "Time to compute one constellation frame.",
			Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10),
		},
	)

	positionErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lunago_position_errors_total",
			Help: "Total number of failed satellite position computations.",
		},
	)

	constellationSatellites = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lunago_constellation_satellites",
			Help: "Satellite count of the active session.",
		},
	)

	animationPhaseRadians = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lunago_animation_phase_radians",
			Help: "Current phase of the shared animation clock.",
		},
	)

	streamsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lunago_streams_active",
			Help: "Number of currently connected SSE frame streams.",
		},
	)

	streamConnectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lunago_stream_connections_total",
			Help: "Total SSE stream connection events.",
		},
		[]string{"event"},
	)

	streamMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lunago_stream_messages_total",
			Help: "Total SSE messages sent.",
		},
	)

	streamBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lunago_stream_bytes_total",
			Help: "Total bytes written to SSE streams.",
		},
	)

	streamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lunago_stream_errors_total",
			Help: "Total SSE stream errors by reason.",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		framesComputedTotal,
		frameComputeSeconds,
		positionErrorsTotal,
		constellationSatellites,
		animationPhaseRadians,
		streamsActive,
		streamConnectionsTotal,
		streamMessagesTotal,
		streamBytesTotal,
		streamErrorsTotal,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// knownRoutes are the exact paths the server registers.
var knownRoutes = map[string]bool{
	"/":                     true,
	"/healthz":              true,
	"/readyz":               true,
	"/metrics":              true,
	"/api/v1/constellation": true,
	"/api/v1/positions":     true,
	"/api/v1/scene":         true,
	"/api/v1/stream/frames": true,
}

// normalizeRoute collapses unknown paths to a single label so bots scanning
// for /wp-admin and friends cannot blow up metric cardinality. Embedded web
// assets collapse to "static".
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	if strings.HasSuffix(path, ".html") || strings.HasSuffix(path, ".js") || strings.HasSuffix(path, ".css") {
		return "static"
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the wrapped writer so http.ResponseController can reach
// flush and deadline controls through the middleware chain.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}

// RecordFrame records one computed constellation frame.
func RecordFrame(duration time.Duration, errorCount int) {
	framesComputedTotal.Inc()
	frameComputeSeconds.Observe(duration.Seconds())
	if errorCount > 0 {
		positionErrorsTotal.Add(float64(errorCount))
	}
}

// SetSatelliteCount publishes the active session's satellite count.
func SetSatelliteCount(n int) {
	constellationSatellites.Set(float64(n))
}

// SetAnimationPhase publishes the shared clock's current phase.
func SetAnimationPhase(phase float64) {
	animationPhaseRadians.Set(phase)
}

// IncStreamsActive increments the active stream gauge.
func IncStreamsActive() { streamsActive.Inc() }

// DecStreamsActive decrements the active stream gauge.
func DecStreamsActive() { streamsActive.Dec() }

// IncStreamConnections counts a stream connect/disconnect event.
func IncStreamConnections(event string) {
	streamConnectionsTotal.WithLabelValues(event).Inc()
}

// IncStreamMessages counts one sent SSE message.
func IncStreamMessages() { streamMessagesTotal.Inc() }

// AddStreamBytes counts bytes written to a stream.
func AddStreamBytes(n int64) { streamBytesTotal.Add(float64(n)) }

// IncStreamErrors counts a stream error by reason.
func IncStreamErrors(reason string) {
	streamErrorsTotal.WithLabelValues(reason).Inc()
}
