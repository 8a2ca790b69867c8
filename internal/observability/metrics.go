package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce       sync.Once
	requestsTotal      *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	requestErrors      *prometheus.CounterVec
	scoresComputed     *prometheus.CounterVec
	scoringLatency     prometheus.Histogram
	leadScoreHistogram prometheus.Histogram
	importRowsTotal    *prometheus.CounterVec
	webhookEventsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		requestLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crm_request_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		requestErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		scoresComputed = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_lead_scores_computed_total",
			Help: "Total number of lead score computations by outcome.",
		}, []string{"outcome"})

		scoringLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "crm_lead_scoring_latency_seconds",
			Help:    "Latency distribution for lead score computations.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
		})

		leadScoreHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "crm_lead_score_value",
			Help:    "Distribution of computed lead score values.",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		})

		importRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_import_rows_total",
			Help: "Total number of bulk import rows processed by outcome.",
		}, []string{"outcome"})

		webhookEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_webhook_events_total",
			Help: "Total number of lead webhook events received by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			requestsTotal, requestLatency, requestErrors,
			scoresComputed, scoringLatency, leadScoreHistogram,
			importRowsTotal, webhookEventsTotal,
		)
	})
}

// MetricsHandler serves the Prometheus scrape endpoint for the CRM
// collectors, registering them on first use.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.Handler())
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// RequestLatency exposes the latency histogram for API requests.
func RequestLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return requestLatency
}

// RequestErrors exposes the counter for API error responses.
func RequestErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return requestErrors
}

// ScoresComputed exposes the counter for lead score computations.
func ScoresComputed() *prometheus.CounterVec {
	RegisterMetrics()
	return scoresComputed
}

// ScoringLatency exposes the latency histogram for score computations.
func ScoringLatency() prometheus.Histogram {
	RegisterMetrics()
	return scoringLatency
}

// LeadScoreDistribution exposes the histogram of computed score values.
func LeadScoreDistribution() prometheus.Histogram {
	RegisterMetrics()
	return leadScoreHistogram
}

// ImportRows exposes the counter for bulk import row outcomes.
func ImportRows() *prometheus.CounterVec {
	RegisterMetrics()
	return importRowsTotal
}

// WebhookEvents exposes the counter for webhook event outcomes.
func WebhookEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return webhookEventsTotal
}
