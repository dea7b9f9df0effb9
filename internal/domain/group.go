package domain

import (
	"strings"
)

// GroupKey identifies one histogram within an aggregation run. Empty
// dimensions mean the run is not partitioned on that axis. GroupKey is
// comparable and is used directly as a map key.
type GroupKey struct {
	// Candidate is the canonical candidate identifier.
	Candidate string `json:"candidate"`

	// Region is a region code such as "GA", or empty for nationwide.
	Region string `json:"region,omitempty"`

	// Breakdown is a sub-breakdown label such as a vote type or a
	// ballot-delivery method.
	Breakdown string `json:"breakdown,omitempty"`
}

// String renders the non-empty dimensions joined by '/'.
func (k GroupKey) String() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{k.Region, k.Breakdown, k.Candidate} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "/")
}

// Panel returns the key with the candidate dimension cleared. Groups that
// share a panel are compared against each other in one table.
func (k GroupKey) Panel() GroupKey {
	return GroupKey{Region: k.Region, Breakdown: k.Breakdown}
}
