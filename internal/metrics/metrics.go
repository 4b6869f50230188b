package metrics

import (
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// InFlight is the number of API requests being served.
	InFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)

	// RateLimitedTotal counts requests rejected with 429 by limiter (auth, ai).
	RateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ammotrack_rate_limited_total",
			Help: "Requests rejected by a rate limiter",
		},
		[]string{"limiter"},
	)

	// AIFlowTotal counts AI flow runs by flow (stock_balancing, rebalancing) and
	// status (ok, cached, error).
	AIFlowTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ammotrack_ai_flow_total",
			Help: "Total number of AI flow runs by flow and status",
		},
		[]string{"flow", "status"},
	)

	// AIFlowDuration tracks AI flow latency in seconds, including cache hits.
	AIFlowDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ammotrack_ai_flow_duration_seconds",
			Help:    "AI flow duration in seconds",
			Buckets: []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"flow"},
	)

	// AIDiscardedTotal counts model recommendations rejected by validation.
	AIDiscardedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ammotrack_ai_discarded_total",
			Help: "AI recommendations discarded by validation",
		},
		[]string{"flow"},
	)

	// ActiveAlerts is the number of alert definitions triggered at the last check.
	ActiveAlerts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ammotrack_active_alerts",
			Help: "Number of alert definitions currently triggered",
		},
	)

	// AlertChecksTotal counts scheduled alert evaluations by status (ok, error).
	AlertChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ammotrack_alert_checks_total",
			Help: "Total number of alert evaluations by status",
		},
		[]string{"status"},
	)
)

var (
	idPathSegment = regexp.MustCompile(`/([0-9]+|[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12})(/|$)`)
	initOnce      sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, InFlight, RateLimitedTotal, AIFlowTotal, AIFlowDuration,
			AIDiscardedTotal, ActiveAlerts, AlertChecksTotal)
	})
}

// NormalizePath reduces cardinality by replacing numeric and UUID path segments with {id}.
// E.g. /shipments/5f0c...e1 -> /shipments/{id}. Routers that know the route
// pattern should pass that instead.
func NormalizePath(path string) string {
	return idPathSegment.ReplaceAllString(path, "/{id}$2")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// ObserveAIFlow records one AI flow run.
func ObserveAIFlow(flow, status string, d time.Duration) {
	AIFlowTotal.WithLabelValues(flow, status).Inc()
	AIFlowDuration.WithLabelValues(flow).Observe(d.Seconds())
}

func AddAIDiscarded(flow string, n int) {
	if n > 0 {
		AIDiscardedTotal.WithLabelValues(flow).Add(float64(n))
	}
}

// SetActiveAlerts sets the triggered alerts gauge.
func SetActiveAlerts(n int) {
	ActiveAlerts.Set(float64(n))
}

func IncAlertChecks(status string) {
	AlertChecksTotal.WithLabelValues(status).Inc()
}

func IncRateLimited(limiter string) {
	RateLimitedTotal.WithLabelValues(limiter).Inc()
}
