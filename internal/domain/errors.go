package domain

import (
	"errors"
	"fmt"
)

// Common domain errors raised while extracting and aggregating digits.
var (
	// ErrInvalidState indicates that an operation received input that
	// violates a type invariant.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidConfiguration indicates that configuration is invalid or
	// incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrFieldNotFound indicates that a Field or Match selector referenced
	// a field the record does not have.
	ErrFieldNotFound = errors.New("field not found")

	// ErrSelectorUnsatisfied indicates that a non-filter Match selector
	// found no matching element.
	ErrSelectorUnsatisfied = errors.New("selector unsatisfied")

	// ErrUnexpectedShape indicates that a selector was applied to a record
	// variant it cannot navigate, or that a value path ended on a
	// non-scalar.
	ErrUnexpectedShape = errors.New("unexpected record shape")

	// ErrNonNumeric indicates that a vote count could not be parsed as an
	// integer.
	ErrNonNumeric = errors.New("non-numeric vote count")

	// ErrEmptyHistogram indicates that a group produced no eligible
	// observations. It is the only recoverable aggregation condition and
	// is handled by omitting the group.
	ErrEmptyHistogram = errors.New("empty histogram")

	// ErrUnknownCandidate indicates that a record's candidate label
	// matches none of the configured candidates.
	ErrUnknownCandidate = errors.New("unknown candidate")
)

// PathError reports a fatal failure to navigate a record along a Path.
// It signals that the loaded data does not match the assumed shape.
type PathError struct {
	// Path is the full path being resolved.
	Path Path

	// Step is the index of the failing selector within Path.
	Step int

	// Node describes the record the selector was applied to.
	Node string

	// Err is one of ErrFieldNotFound, ErrSelectorUnsatisfied or
	// ErrUnexpectedShape.
	Err error
}

// Error implements the error interface for PathError.
func (e *PathError) Error() string {
	return fmt.Sprintf("path error: path=%s, selector=%s, node=%s, err=%v", e.Path, e.Selector(), e.Node, e.Err)
}

// Selector renders the failing selector, or "<end>" when the failure
// concerns the record reached after the last selector.
func (e *PathError) Selector() string {
	if e.Step >= 0 && e.Step < len(e.Path) {
		return e.Path[e.Step].String()
	}
	return "<end>"
}

// Unwrap returns the underlying error, supporting Go 1.13+ error unwrapping.
func (e *PathError) Unwrap() error { return e.Err }

// NewPathError creates a new PathError with the given details.
func NewPathError(path Path, step int, node Record, err error) *PathError {
	return &PathError{
		Path: path,
		Step: step,
		Node: Describe(node),
		Err:  err,
	}
}

// ParseError reports a vote count that could not be parsed.
type ParseError struct {
	// Value is the raw text that failed to parse.
	Value string

	// Err is the underlying error, ErrNonNumeric.
	Err error
}

// Error implements the error interface for ParseError.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: value=%q, err=%v", e.Value, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError creates a new ParseError with the given details.
func NewParseError(value string, err error) *ParseError {
	return &ParseError{Value: value, Err: err}
}

// UnknownCandidateError reports a candidate label that matches none of
// the configured candidate identifiers.
type UnknownCandidateError struct {
	// Label is the raw candidate label found in the data.
	Label string

	// Suggestion is the closest configured candidate, if any.
	Suggestion string
}

// Error implements the error interface for UnknownCandidateError.
func (e *UnknownCandidateError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v: label=%q (closest configured candidate: %s)", ErrUnknownCandidate, e.Label, e.Suggestion)
	}
	return fmt.Sprintf("%v: label=%q", ErrUnknownCandidate, e.Label)
}

// Unwrap returns ErrUnknownCandidate.
func (e *UnknownCandidateError) Unwrap() error { return ErrUnknownCandidate }

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
