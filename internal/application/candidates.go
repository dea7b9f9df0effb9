package application

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-benford/internal/domain"
)

// CandidateField is the field Canonicalize adds to each row.
const CandidateField = "candidate"

// CandidateMatcher maps raw candidate labels found in data, such as
// "BIDEN, JOSEPH ROBINETTE" or "Joseph R. Biden (Dem)", onto the
// configured candidate identifiers.
//
// Matching is a Unicode case-folded substring test against each
// candidate in configured order; the first hit wins. A CandidateMatcher
// is not safe for concurrent use.
type CandidateMatcher struct {
	candidates []string
	folded     []string
	caser      cases.Caser
}

// NewCandidateMatcher creates a matcher over the ordered candidate set.
func NewCandidateMatcher(candidates []string) *CandidateMatcher {
	caser := cases.Fold()
	folded := make([]string, len(candidates))
	for i, c := range candidates {
		folded[i] = caser.String(strings.TrimSpace(c))
	}
	return &CandidateMatcher{
		candidates: candidates,
		folded:     folded,
		caser:      caser,
	}
}

// Match returns the configured candidate whose identifier appears in
// label. A label matching no candidate is an *domain.UnknownCandidateError
// carrying the nearest candidate by edit distance as a hint.
func (m *CandidateMatcher) Match(label string) (string, error) {
	fl := m.caser.String(label)
	for i, f := range m.folded {
		if f != "" && strings.Contains(fl, f) {
			return m.candidates[i], nil
		}
	}
	return "", &domain.UnknownCandidateError{Label: label, Suggestion: m.nearest(fl)}
}

// nearest returns the candidate with the smallest Levenshtein distance to
// any word of the folded label.
func (m *CandidateMatcher) nearest(foldedLabel string) string {
	words := strings.FieldsFunc(foldedLabel, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	best, bestDist := "", -1
	for i, f := range m.folded {
		for _, w := range words {
			d := levenshtein.ComputeDistance(w, f)
			if bestDist < 0 || d < bestDist {
				best, bestDist = m.candidates[i], d
			}
		}
	}
	return best
}

// Canonicalize returns copies of the mapping rows in records with a
// "candidate" field holding the configured identifier matched from the
// label in field. Input records are not modified. Any unmatched label
// aborts with an UnknownCandidateError; a missing field is a fatal
// PathError.
func (m *CandidateMatcher) Canonicalize(records domain.Sequence, field string) (domain.Sequence, error) {
	path := domain.Path{domain.Field{Name: field}}
	out := make(domain.Sequence, len(records))
	for i, rec := range records {
		row, ok := rec.(domain.Mapping)
		if !ok {
			return nil, fmt.Errorf("record %d: %w", i, domain.NewPathError(path, 0, rec, domain.ErrUnexpectedShape))
		}
		label, ok := row.Text(field)
		if !ok {
			return nil, fmt.Errorf("record %d: %w", i, domain.NewPathError(path, 0, row, domain.ErrFieldNotFound))
		}
		cand, err := m.Match(label)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out[i] = row.With(CandidateField, domain.Scalar(cand))
	}
	return out, nil
}
