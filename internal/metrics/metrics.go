package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anise_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "anise_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anise_queries_total",
			Help: "Total almanac queries by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	queryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "anise_query_duration_seconds",
			Help:    "Almanac query duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		},
		[]string{"op"},
	)

	kernelsLoaded = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "anise_kernels_loaded",
			Help: "Loaded kernel count by kind (spk, bpc, pca, epa).",
		},
		[]string{"kind"},
	)

	seriesPointsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "anise_series_points_total",
			Help: "Total observable series points evaluated.",
		},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpDurationSeconds)
	prometheus.MustRegister(queriesTotal)
	prometheus.MustRegister(queryDurationSeconds)
	prometheus.MustRegister(kernelsLoaded)
	prometheus.MustRegister(seriesPointsTotal)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordQuery records one almanac query with its duration and outcome.
func RecordQuery(op string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	queriesTotal.WithLabelValues(op, outcome).Inc()
	queryDurationSeconds.WithLabelValues(op).Observe(d.Seconds())
}

// SetKernelsLoaded updates the loaded-kernel gauge for one kind.
func SetKernelsLoaded(kind string, n int) {
	kernelsLoaded.WithLabelValues(kind).Set(float64(n))
}

// AddSeriesPoints counts evaluated series grid points.
func AddSeriesPoints(n int) {
	seriesPointsTotal.Add(float64(n))
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

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.URL.Path, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(r.URL.Path, r.Method).Observe(duration)
	})
}
