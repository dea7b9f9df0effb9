// Package ports defines the interfaces that form the contract between the
// domain/application layers and the infrastructure layer. They keep data
// loading, rendering and telemetry swappable and the engine testable.
package ports

import (
	"context"
	"time"

	"github.com/ahrav/go-benford/internal/domain"
)

// DataLoader parses one dataset file into the generic nested record
// shape the engine consumes. Implementations own every format-specific
// concern (XML trees, CSV headers, JSON documents) and must not coerce
// vote counts: scalars are passed through as text.
type DataLoader interface {
	// Format returns the configuration name of the format this loader
	// handles, e.g. "county_csv".
	Format() string

	// Load reads the dataset at path and returns its root record.
	// The context allows for cancellation of long reads.
	Load(ctx context.Context, path string) (domain.Record, error)
}

// DatasetSource resolves a format name to its DataLoader and loads the
// dataset. Implementations may cache parsed datasets; callers must treat
// returned records as read-only.
type DatasetSource interface {
	// Load parses the dataset at path with the loader registered for
	// format. An unknown format wraps ErrUnsupportedFormat.
	Load(ctx context.Context, format, path string) (domain.Record, error)
}

// Renderer consumes finished distributions. Figure, axis, color and file
// concerns belong entirely to the implementation.
type Renderer interface {
	// Render presents one dataset report. It is only called for runs
	// that completed without a fatal error.
	Render(ctx context.Context, report *domain.Report) error
}

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus, OpenTelemetry, or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// This is useful for tracking events like observations and skipped
	// records.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	// This is useful for tracking values like vote totals per group.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	// This is useful for tracking distributions like group sizes.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
