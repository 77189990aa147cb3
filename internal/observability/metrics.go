package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// QuietSpotter service.
type Metrics struct {
	ReportsSubmitted prometheus.Counter
	LocationsAdded   prometheus.Counter
	Logins           prometheus.Counter
	Signups          prometheus.Counter
	BackendErrors    prometheus.Counter
	FeedPublished    prometheus.Counter

	// ReportNoiseLevel tracks the distribution of submitted levels (1–10).
	ReportNoiseLevel prometheus.Histogram

	SessionsActive prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={forward,reverse}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={forward,reverse}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={forward,reverse}
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quietspotter",
			Name:      "reports_submitted_total",
			Help:      "Total noise reports accepted.",
		}),
		LocationsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quietspotter",
			Name:      "locations_added_total",
			Help:      "Total locations added by users.",
		}),
		Logins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quietspotter",
			Name:      "logins_total",
			Help:      "Total successful logins, including first-time signups.",
		}),
		Signups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quietspotter",
			Name:      "signups_total",
			Help:      "Total accounts provisioned on first login.",
		}),
		BackendErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quietspotter",
			Name:      "backend_errors_total",
			Help:      "Total repository failures downgraded to backend-unavailable.",
		}),
		FeedPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quietspotter",
			Name:      "feed_published_total",
			Help:      "Total reports published to the analytics feed.",
		}),
		ReportNoiseLevel: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quietspotter",
			Name:      "report_noise_level",
			Help:      "Distribution of submitted noise levels.",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		}),
		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quietspotter",
			Name:      "sessions_active",
			Help:      "Number of live client sessions.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quietspotter",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by method and outcome.",
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quietspotter",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by method and result.",
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "quietspotter",
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
	}
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReportsSubmitted,
		m.LocationsAdded,
		m.Logins,
		m.Signups,
		m.BackendErrors,
		m.FeedPublished,
		m.ReportNoiseLevel,
		m.SessionsActive,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
	)
	return m
}

// NewMetricsForTesting creates Metrics without touching the default registry
// to avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
