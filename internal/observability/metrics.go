package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "groomprice"

// Metrics holds the Prometheus counters, histograms, and gauges for the quote pipeline.
type Metrics struct {
	QuotesTotal   *prometheus.CounterVec // labels: outcome={success,invalid,error}
	QuoteDuration prometheus.Histogram

	// Admission control.
	RateLimitRejections prometheus.Counter
	RateLimitClients    prometheus.Gauge
	ModelSlotsInUse     prometheus.Gauge
	ModelSlotWaiters    prometheus.Gauge
	ModelSlotWait       prometheus.Histogram

	// Upstream providers.
	GeocodeRequests *prometheus.CounterVec   // labels: provider, outcome={success,not_found,error}
	SearchRequests  *prometheus.CounterVec   // labels: provider, outcome={success,error}
	ProviderLatency *prometheus.HistogramVec // labels: provider, call={geocode,search,model}
	FallbackUsed    prometheus.Counter
	GroomersFound   prometheus.Histogram

	// Estimation.
	ModelRequests   *prometheus.CounterVec // labels: outcome={success,error}
	EstimateSource  *prometheus.CounterVec // labels: source={model,heuristic,empty}
	EventsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		QuotesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Price quote requests by outcome.",
		}, []string{"outcome"}),
		QuoteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_duration_seconds",
			Help:      "End-to-end duration of a price quote.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		}),
		RateLimitRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejections_total",
			Help:      "Requests rejected with 429 by the per-client rate limiter.",
		}),
		RateLimitClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rate_limit_clients",
			Help:      "Client identifiers currently tracked by the rate limiter.",
		}),
		ModelSlotsInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_slots_in_use",
			Help:      "Model call slots currently held.",
		}),
		ModelSlotWaiters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_slot_waiters",
			Help:      "Callers queued for a model call slot.",
		}),
		ModelSlotWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_slot_wait_seconds",
			Help:      "Time spent waiting for a model call slot.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 30, 60},
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		SearchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Places search API requests by provider and outcome.",
		}, []string{"provider", "outcome"}),
		ProviderLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_duration_seconds",
			Help:      "Upstream provider request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider", "call"}),
		FallbackUsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_groomers_total",
			Help:      "Searches that synthesized fallback groomers.",
		}),
		GroomersFound: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "groomers_found",
			Help:      "Groomers returned per search.",
			Buckets:   []float64{0, 1, 2, 4, 6, 8, 10, 12},
		}),
		ModelRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_requests_total",
			Help:      "Text-generation model calls by outcome.",
		}, []string{"outcome"}),
		EstimateSource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "estimates_total",
			Help:      "Produced price estimates by source.",
		}, []string{"source"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "estimate_events_total",
			Help:      "Estimate events published to Kafka by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.QuotesTotal,
		m.QuoteDuration,
		m.RateLimitRejections,
		m.RateLimitClients,
		m.ModelSlotsInUse,
		m.ModelSlotWaiters,
		m.ModelSlotWait,
		m.GeocodeRequests,
		m.SearchRequests,
		m.ProviderLatency,
		m.FallbackUsed,
		m.GroomersFound,
		m.ModelRequests,
		m.EstimateSource,
		m.EventsPublished,
	}
}
