package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics manages the Prometheus metrics.
type Metrics struct {
	PredictionRequests *prometheus.CounterVec
	PredictionLatency  *prometheus.HistogramVec
	FraudScores        prometheus.Histogram
	AlertsPublished    *prometheus.CounterVec
	TrainingRuns       *prometheus.CounterVec
	TrainingDuration   prometheus.Histogram
	TrackedProfiles    prometheus.Gauge
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// NewMetrics creates the Prometheus metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PredictionRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraudguard_prediction_requests_total",
				Help: "Total number of scoring requests.",
			},
			[]string{"mode", "risk_tier", "result"},
		),
		PredictionLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fraudguard_prediction_latency_seconds",
				Help:    "Latency of scoring requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		FraudScores: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fraudguard_fraud_score",
				Help:    "Distribution of ensemble fraud scores.",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
		),
		AlertsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraudguard_alerts_published_total",
				Help: "Total number of fraud alerts published.",
			},
			[]string{"result"},
		),
		TrainingRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraudguard_training_runs_total",
				Help: "Total number of retraining passes.",
			},
			[]string{"result"},
		),
		TrainingDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fraudguard_training_duration_seconds",
				Help:    "Duration of retraining passes.",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			},
		),
		TrackedProfiles: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "fraudguard_tracked_profiles",
				Help: "Number of user behavioral profiles currently tracked.",
			},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fraudguard_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fraudguard_http_request_duration_seconds",
				Help:    "Latency of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// RecordPrediction records one scoring outcome.
func (m *Metrics) RecordPrediction(mode, riskTier, result string, score float64, duration time.Duration) {
	m.PredictionRequests.WithLabelValues(mode, riskTier, result).Inc()
	m.PredictionLatency.WithLabelValues(mode).Observe(duration.Seconds())
	if result == "success" {
		m.FraudScores.Observe(score)
	}
}

// RecordAlert records an alert publication attempt.
func (m *Metrics) RecordAlert(result string) {
	m.AlertsPublished.WithLabelValues(result).Inc()
}

// RecordTraining records a retraining pass.
func (m *Metrics) RecordTraining(result string, duration time.Duration) {
	m.TrainingRuns.WithLabelValues(result).Inc()
	m.TrainingDuration.Observe(duration.Seconds())
}

// SetTrackedProfiles updates the profile count gauge.
func (m *Metrics) SetTrackedProfiles(n int) {
	m.TrackedProfiles.Set(float64(n))
}

// RecordHTTPRequest records one completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(method, path, status).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
