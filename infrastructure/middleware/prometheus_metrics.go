// Package middleware provides cross-cutting concerns for the analysis
// engine. It wraps dataset sources with size budgets and tracing, and
// implements the Prometheus metrics collector.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-benford/internal/application"
	"github.com/ahrav/go-benford/internal/ports"
)

const metricsNamespace = "benford"

// unknownLabel is recorded when a caller omits a label.
const unknownLabel = "unknown"

var groupLabels = []string{"pass", "candidate", "region", "breakdown"}

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It exposes per-group observation counts and vote totals,
// excluded-record counters and aggregation latency.
type PrometheusMetrics struct {
	observations     *prometheus.CounterVec
	excluded         *prometheus.CounterVec
	emptyGroups      *prometheus.CounterVec
	groupVotes       *prometheus.GaugeVec
	groupSize        *prometheus.HistogramVec
	executionLatency *prometheus.HistogramVec
	operationCounter *prometheus.CounterVec
	systemGauges     *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// its collectors with reg. A nil reg uses the default registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		// Per-group digit metrics.
		observations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "observations_total",
				Help:      "Values that contributed a digit to a group histogram.",
			},
			groupLabels,
		),
		excluded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "excluded_records_total",
				Help:      "Records excluded from a group, by reason.",
			},
			[]string{"pass", "reason"},
		),
		emptyGroups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "empty_groups_total",
				Help:      "Groups that produced no eligible observations.",
			},
			[]string{"pass"},
		),
		groupVotes: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "group_total_votes",
				Help:      "Sum of the vote counts that contributed to a group.",
			},
			groupLabels,
		),
		groupSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "group_observations",
				Help:      "Distribution of observation counts per group.",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{"pass"},
		),

		// General execution metrics.
		executionLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "execution_duration_seconds",
				Help:      "Execution time of aggregation passes and dataset runs.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "scope"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "operations_total",
				Help:      "Other engine events, by metric name.",
			},
			[]string{"operation", "scope"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "system_state",
				Help:      "Other engine gauge values, by metric name.",
			},
			[]string{"metric", "scope"},
		),
	}
}

// scope returns the pass, dataset or format a metric belongs to.
func scope(labels map[string]string) string {
	for _, k := range []string{"pass", "dataset", "format"} {
		if v := labels[k]; v != "" {
			return v
		}
	}
	return unknownLabel
}

func groupValues(labels map[string]string) []string {
	return []string{scope(labels), labels["candidate"], labels["region"], labels["breakdown"]}
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.executionLatency.WithLabelValues(operation, scope(labels)).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case application.MetricObservations:
		pm.observations.WithLabelValues(groupValues(labels)...).Add(value)
	case application.MetricSkipped:
		pm.excluded.WithLabelValues(scope(labels), "filtered").Add(value)
	case application.MetricIneligible:
		pm.excluded.WithLabelValues(scope(labels), "ineligible").Add(value)
	case application.MetricEmptyGroups:
		pm.emptyGroups.WithLabelValues(scope(labels)).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, scope(labels)).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case application.MetricGroupVotes:
		pm.groupVotes.WithLabelValues(groupValues(labels)...).Set(value)
	default:
		pm.systemGauges.WithLabelValues(metric, scope(labels)).Set(value)
	}
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram. Values for metrics other than group
// sizes are routed to the execution histogram under the metric's name.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case application.MetricGroupSize:
		pm.groupSize.WithLabelValues(scope(labels)).Observe(value)
	default:
		pm.executionLatency.WithLabelValues(metric, scope(labels)).Observe(value)
	}
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// NopMetrics discards every metric.
type NopMetrics struct{}

// RecordLatency implements ports.MetricsCollector.
func (NopMetrics) RecordLatency(string, time.Duration, map[string]string) {}

// RecordCounter implements ports.MetricsCollector.
func (NopMetrics) RecordCounter(string, float64, map[string]string) {}

// RecordGauge implements ports.MetricsCollector.
func (NopMetrics) RecordGauge(string, float64, map[string]string) {}

// RecordHistogram implements ports.MetricsCollector.
func (NopMetrics) RecordHistogram(string, float64, map[string]string) {}

var _ ports.MetricsCollector = NopMetrics{}
