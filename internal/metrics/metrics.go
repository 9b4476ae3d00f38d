package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Coin metrics
	fetchesTotal   *prometheus.CounterVec
	fetchDuration  prometheus.Histogram
	staleResponses prometheus.Counter
	cacheHits      prometheus.Counter
	archiveWrites  *prometheus.CounterVec
	pagesRendered  *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.fetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinview_fetches_total",
			Help: "Total number of upstream coin fetches",
		},
		[]string{"status"},
	)
	r.fetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coinview_fetch_duration_seconds",
			Help:    "Upstream coin fetch duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)
	r.staleResponses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coinview_stale_responses_total",
			Help: "Fetch completions discarded because the view moved on",
		},
	)
	r.cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coinview_cache_hits_total",
			Help: "Coin payloads served from the in-memory store",
		},
	)
	r.archiveWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinview_archive_writes_total",
			Help: "Raw payload archive writes",
		},
		[]string{"status"},
	)
	r.pagesRendered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinview_pages_rendered_total",
			Help: "Coin pages rendered by kind",
		},
		[]string{"kind"},
	)

	reg.MustRegister(r.fetchesTotal)
	reg.MustRegister(r.fetchDuration)
	reg.MustRegister(r.staleResponses)
	reg.MustRegister(r.cacheHits)
	reg.MustRegister(r.archiveWrites)
	reg.MustRegister(r.pagesRendered)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordFetch records an upstream fetch outcome ("ok" or an error code).
func (r *Registry) RecordFetch(status string, duration float64) {
	r.fetchesTotal.WithLabelValues(status).Inc()
	r.fetchDuration.Observe(duration)
}

// RecordStaleResponse counts a discarded fetch completion.
func (r *Registry) RecordStaleResponse() {
	r.staleResponses.Inc()
}

// RecordCacheHit counts a payload served from memory.
func (r *Registry) RecordCacheHit() {
	r.cacheHits.Inc()
}

// RecordArchiveWrite records a payload archive write outcome.
func (r *Registry) RecordArchiveWrite(status string) {
	r.archiveWrites.WithLabelValues(status).Inc()
}

// RecordPage counts a rendered page of the given kind.
func (r *Registry) RecordPage(kind string) {
	r.pagesRendered.WithLabelValues(kind).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
