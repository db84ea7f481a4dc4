// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Poller metrics
	PollCyclesTotal   *prometheus.CounterVec
	PollCycleDuration prometheus.Histogram
	CandidatesFetched *prometheus.CounterVec
	CandidatesSkipped *prometheus.CounterVec
	DecisionsTotal    *prometheus.CounterVec
	RepliesTotal      *prometheus.CounterVec
	ActionsDispatched *prometheus.CounterVec

	// Deploy metrics
	DeployEvaluations *prometheus.CounterVec
	DeploysTotal      *prometheus.CounterVec
	DeploysToday      prometheus.Gauge

	// Latency metrics
	ExternalCallLatency *prometheus.HistogramVec
	ExternalCallErrors  *prometheus.CounterVec

	// Notification metrics
	NotificationsTotal *prometheus.CounterVec
	WSClients          prometheus.Gauge

	// Health metrics
	LastSuccessfulCycle prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "tokimonster_agent"
	}

	return &Metrics{
		PollCyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "cycles_total",
			Help:      "Total number of poll cycles by status",
		}, []string{"status"}),
		PollCycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "cycle_duration_seconds",
			Help:      "Poll cycle duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		CandidatesFetched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "candidates_fetched_total",
			Help:      "Total number of candidates fetched by source",
		}, []string{"source"}),
		CandidatesSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "candidates_skipped_total",
			Help:      "Total number of candidates skipped by reason",
		}, []string{"reason"}),
		DecisionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "decisions_total",
			Help:      "Total number of respond decisions by outcome",
		}, []string{"decision"}),
		RepliesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "replies_total",
			Help:      "Total number of reply parts by status",
		}, []string{"status"}),
		ActionsDispatched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "actions",
			Name:      "dispatched_total",
			Help:      "Total number of action dispatches by action and result",
		}, []string{"action", "result"}),

		DeployEvaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "deploy",
			Name:      "evaluations_total",
			Help:      "Total number of deploy evaluations by outcome",
		}, []string{"outcome"}),
		DeploysTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "deploy",
			Name:      "executions_total",
			Help:      "Total number of deploy executions by status",
		}, []string{"status"}),
		DeploysToday: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "deploy",
			Name:      "executions_today",
			Help:      "Number of live deploys recorded for the current UTC day",
		}),

		ExternalCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "external",
			Name:      "call_latency_seconds",
			Help:      "Outbound call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "method"}),
		ExternalCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "external",
			Name:      "call_errors_total",
			Help:      "Total number of failed outbound calls",
		}, []string{"service", "method"}),

		NotificationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "messages_total",
			Help:      "Total number of operator notifications by sink and status",
		}, []string{"sink", "status"}),
		WSClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "ws_clients",
			Help:      "Number of connected notification dashboard clients",
		}),

		LastSuccessfulCycle: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_cycle_timestamp",
			Help:      "Unix timestamp of last successful poll cycle",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordPollCycle records a finished poll cycle.
func RecordPollCycle(status string, duration time.Duration) {
	DefaultMetrics.PollCyclesTotal.WithLabelValues(status).Inc()
	DefaultMetrics.PollCycleDuration.Observe(duration.Seconds())
	if status == "ok" {
		DefaultMetrics.LastSuccessfulCycle.SetToCurrentTime()
	}
}

// RecordCandidatesFetched adds n fetched candidates for source.
func RecordCandidatesFetched(source string, n int) {
	DefaultMetrics.CandidatesFetched.WithLabelValues(source).Add(float64(n))
}

// RecordCandidateSkipped increments the skipped candidates counter.
func RecordCandidateSkipped(reason string) {
	DefaultMetrics.CandidatesSkipped.WithLabelValues(reason).Inc()
}

// RecordDecision increments the decisions counter.
func RecordDecision(decision string) {
	DefaultMetrics.DecisionsTotal.WithLabelValues(decision).Inc()
}

// RecordReply increments the reply parts counter.
func RecordReply(status string) {
	DefaultMetrics.RepliesTotal.WithLabelValues(status).Inc()
}

// RecordAction increments the action dispatch counter.
func RecordAction(action, result string) {
	DefaultMetrics.ActionsDispatched.WithLabelValues(action, result).Inc()
}

// RecordDeployEvaluation increments the deploy evaluation counter.
func RecordDeployEvaluation(outcome string) {
	DefaultMetrics.DeployEvaluations.WithLabelValues(outcome).Inc()
}

// RecordDeploy increments the deploy execution counter.
func RecordDeploy(status string) {
	DefaultMetrics.DeploysTotal.WithLabelValues(status).Inc()
}

// UpdateDeploysToday sets the deploys-today gauge.
func UpdateDeploysToday(n int) {
	DefaultMetrics.DeploysToday.Set(float64(n))
}

// RecordExternalCall records outbound call metrics.
func RecordExternalCall(service, method string, duration time.Duration, err error) {
	DefaultMetrics.ExternalCallLatency.WithLabelValues(service, method).Observe(duration.Seconds())
	if err != nil {
		DefaultMetrics.ExternalCallErrors.WithLabelValues(service, method).Inc()
	}
}

// RecordNotification increments the notification counter.
func RecordNotification(sink, status string) {
	DefaultMetrics.NotificationsTotal.WithLabelValues(sink, status).Inc()
}

// UpdateWSClients sets the connected dashboard clients gauge.
func UpdateWSClients(n int) {
	DefaultMetrics.WSClients.Set(float64(n))
}
