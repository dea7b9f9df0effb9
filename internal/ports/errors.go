package ports

import (
	"errors"
	"fmt"
)

// Common infrastructure errors that can occur while loading, rendering or
// reporting.
var (
	// ErrUnsupportedFormat indicates that no loader is registered for a
	// dataset format.
	ErrUnsupportedFormat = errors.New("unsupported dataset format")

	// ErrMalformedInput indicates that a dataset file could not be parsed
	// into records.
	ErrMalformedInput = errors.New("malformed input")

	// ErrMissingColumn indicates that a tabular dataset lacks a required
	// column.
	ErrMissingColumn = errors.New("missing column")

	// ErrConfigNotFound indicates that required configuration is missing.
	ErrConfigNotFound = errors.New("configuration not found")

	// ErrInputTooLarge indicates that a dataset file exceeds the configured
	// size budget.
	ErrInputTooLarge = errors.New("input exceeds size budget")
)

// LoaderError represents an error from a DataLoader.
// It includes the format and path of the dataset being loaded.
type LoaderError struct {
	// Format is the dataset format being loaded.
	Format string

	// Path is the dataset file path.
	Path string

	// Err is the underlying error that occurred.
	Err error
}

// Error implements the error interface for LoaderError.
func (e *LoaderError) Error() string {
	return fmt.Sprintf("loader error: format=%s, path=%s, err=%v", e.Format, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoaderError) Unwrap() error { return e.Err }

// NewLoaderError creates a new LoaderError with the given details.
func NewLoaderError(format, path string, err error) *LoaderError {
	return &LoaderError{
		Format: format,
		Path:   path,
		Err:    err,
	}
}

// RenderError represents an error from a Renderer.
type RenderError struct {
	// Dataset is the name of the dataset whose report failed to render.
	Dataset string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for RenderError.
func (e *RenderError) Error() string {
	return fmt.Sprintf("render error: dataset=%s, err=%v", e.Dataset, e.Err)
}

// Unwrap returns the underlying error.
func (e *RenderError) Unwrap() error { return e.Err }

// NewRenderError creates a new RenderError with the given details.
func NewRenderError(dataset string, err error) *RenderError {
	return &RenderError{Dataset: dataset, Err: err}
}

// MetricsError represents an error from metrics collection operations.
type MetricsError struct {
	// Metric is the name of the metric that was being collected when the
	// error occurred.
	Metric string

	// Operation is the name of the metrics operation that failed.
	Operation string

	// Err is the underlying error that caused the metrics operation to fail.
	Err error
}

// Error implements the error interface for MetricsError.
func (e *MetricsError) Error() string {
	return fmt.Sprintf("metrics error: operation=%s, metric=%s, err=%v", e.Operation, e.Metric, e.Err)
}

// Unwrap returns the underlying error.
func (e *MetricsError) Unwrap() error { return e.Err }

// NewMetricsError creates a new MetricsError with the given details.
func NewMetricsError(metric, operation string, err error) *MetricsError {
	return &MetricsError{
		Metric:    metric,
		Operation: operation,
		Err:       err,
	}
}

// ConfigError represents an error from configuration operations.
type ConfigError struct {
	// ConfigKey is the configuration key that was involved in the failed
	// operation.
	ConfigKey string

	// Err is the underlying error that caused the configuration operation
	// to fail.
	Err error
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: key=%s, err=%v", e.ConfigKey, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a new ConfigError with the given details.
func NewConfigError(key string, err error) *ConfigError {
	return &ConfigError{
		ConfigKey: key,
		Err:       err,
	}
}
