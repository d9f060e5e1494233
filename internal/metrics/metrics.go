package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	UpstreamFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shiptracker_upstream_fetches_total",
			Help: "Upstream position fetches by outcome (success or error kind).",
		},
		[]string{"outcome"},
	)

	UpstreamDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shiptracker_upstream_fetch_duration_seconds",
			Help:    "Upstream position fetch duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shiptracker_cache_lookups_total",
			Help: "Vessel cache lookups by result (hit, refresh, shared).",
		},
		[]string{"result"},
	)

	Renders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shiptracker_renders_total",
			Help: "Display images produced by kind (data, stale, error, memo).",
		},
		[]string{"kind"},
	)

	ImagePublishes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shiptracker_image_publishes_total",
			Help: "Image mirror uploads by outcome.",
		},
		[]string{"outcome"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shiptracker_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shiptracker_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)
)

func init() {
	prometheus.MustRegister(
		UpstreamFetches,
		UpstreamDuration,
		CacheLookups,
		Renders,
		ImagePublishes,
		httpRequestsTotal,
		httpDurationSeconds,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordFetch counts one upstream call. outcome is "success" or the error kind.
func RecordFetch(outcome string, elapsed time.Duration) {
	UpstreamFetches.WithLabelValues(outcome).Inc()
	UpstreamDuration.Observe(elapsed.Seconds())
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
// pathFn maps a request to a bounded label; nil uses the raw path.
func Middleware(pathFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			path := r.URL.Path
			if pathFn != nil {
				path = pathFn(r)
			}

			httpRequestsTotal.WithLabelValues(path, r.Method, strconv.Itoa(rw.statusCode)).Inc()
			httpDurationSeconds.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}
