package middleware

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-benford/internal/ports"
)

// Metric names recorded by OTelSourceObserver.
const (
	OperationLoad        = "dataset_load"
	MetricInputBytes     = "input_bytes"
	MetricBudgetExceeded = "input_budget_exceeded_total"
)

var _ SourceObserver = (*OTelSourceObserver)(nil)

// OTelSourceObserver traces dataset loads with OpenTelemetry and reports
// their latency and input size to a MetricsCollector. It keeps no state
// between calls; the span travels in the context.
type OTelSourceObserver struct {
	metrics ports.MetricsCollector
	tracer  trace.Tracer
}

// NewOTelSourceObserver creates an observer. metrics may be nil.
func NewOTelSourceObserver(metrics ports.MetricsCollector) *OTelSourceObserver {
	return &OTelSourceObserver{
		metrics: metrics,
		tracer:  otel.Tracer("dataset-source"),
	}
}

// PreLoad implements SourceObserver. It starts the load span and records
// threshold events when the input nears the budget.
func (o *OTelSourceObserver) PreLoad(ctx context.Context, format, path string, size int64, budget Budget) context.Context {
	ctx, span := o.tracer.Start(ctx, "DatasetSource.Load",
		trace.WithAttributes(
			attribute.String("dataset.format", format),
			attribute.String("dataset.path", path),
			attribute.Int64("input.bytes", size),
		),
	)
	if budget.MaxBytes > 0 {
		span.SetAttributes(
			attribute.Int64("budget.max_bytes", budget.MaxBytes),
			attribute.Int64("budget.remaining_bytes", budget.MaxBytes-size),
		)
		o.checkThresholds(span, size, budget)
	}
	return ctx
}

// PostLoad implements SourceObserver. It ends the span started by PreLoad.
func (o *OTelSourceObserver) PostLoad(ctx context.Context, format, path string, size int64, elapsed time.Duration, err error) {
	span := trace.SpanFromContext(ctx)
	defer span.End()

	labels := map[string]string{"format": format}
	if o.metrics != nil {
		o.metrics.RecordLatency(OperationLoad, elapsed, labels)
	}

	if err != nil {
		span.RecordError(err)
		if errors.Is(err, ports.ErrInputTooLarge) {
			span.AddEvent("budget.exceeded")
			span.SetStatus(codes.Error, "input budget exceeded")
			if o.metrics != nil {
				o.metrics.RecordCounter(MetricBudgetExceeded, 1, labels)
			}
			return
		}
		span.SetStatus(codes.Error, err.Error())
		return
	}

	if o.metrics != nil {
		o.metrics.RecordGauge(MetricInputBytes, float64(size), labels)
	}
	span.SetStatus(codes.Ok, "")
}

func (o *OTelSourceObserver) checkThresholds(span trace.Span, size int64, budget Budget) {
	const warningThreshold = 0.8
	const criticalThreshold = 0.9

	usage := float64(size) / float64(budget.MaxBytes)
	switch {
	case usage >= criticalThreshold:
		span.AddEvent("budget.threshold.critical", trace.WithAttributes(
			attribute.Float64("usage_percentage", usage*100)))
	case usage >= warningThreshold:
		span.AddEvent("budget.threshold.warning", trace.WithAttributes(
			attribute.Float64("usage_percentage", usage*100)))
	}
}
