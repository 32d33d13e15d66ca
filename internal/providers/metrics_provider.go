package providers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"fermmon/internal/models"
	"fermmon/internal/structures"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObservePersistenceDuration(duration time.Duration)
	IncReadingsIngested()
	IncEvaluations(status string)
	IncAlertsDispatched(kind string)
	IncAlertsSuppressed(kind string)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	persistenceDuration prometheus.Histogram
	readingsIngested    prometheus.Counter
	evaluations         *prometheus.CounterVec
	alertsDispatched    *prometheus.CounterVec
	alertsSuppressed    *prometheus.CounterVec
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObservePersistenceDuration(duration time.Duration) {
	m.persistenceDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncReadingsIngested() {
	m.readingsIngested.Inc()
}

func (m *MetricsProvider) IncEvaluations(status string) {
	m.evaluations.WithLabelValues(status).Inc()
}

func (m *MetricsProvider) IncAlertsDispatched(kind string) {
	m.alertsDispatched.WithLabelValues(kind).Inc()
}

func (m *MetricsProvider) IncAlertsSuppressed(kind string) {
	m.alertsSuppressed.WithLabelValues(kind).Inc()
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config, store *models.FermentationStore) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	m := &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fermmon_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fermmon_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fermmon_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fermmon_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		persistenceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fermmon_persistence_duration_seconds",
			Help:    "Duration of snapshot persistence in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		readingsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fermmon_readings_ingested_total",
			Help: "Total number of ingested sensor readings",
		}),

		evaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fermmon_evaluations_total",
			Help: "Fermentation evaluations by result status",
		}, []string{"status"}),

		alertsDispatched: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fermmon_alerts_dispatched_total",
			Help: "Alerts forwarded to notifiers by kind",
		}, []string{"kind"}),

		alertsSuppressed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fermmon_alerts_suppressed_total",
			Help: "Repeated alerts held back by kind",
		}, []string{"kind"}),
	}

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "fermmon_fermentations_total",
		Help: "Number of known fermentations",
	}, func() float64 {
		return float64(store.Len())
	})

	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "fermmon_active_fermentation",
		Help: "1 when a fermentation is active",
	}, func() float64 {
		if _, err := store.ActiveFermentation(); err != nil {
			return 0
		}
		return 1
	})

	return m
}

// noopMetrics is used when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (n *noopMetrics) IncReadingsIngested()                             {}
func (n *noopMetrics) IncEvaluations(_ string)                          {}
func (n *noopMetrics) IncAlertsDispatched(_ string)                     {}
func (n *noopMetrics) IncAlertsSuppressed(_ string)                     {}
