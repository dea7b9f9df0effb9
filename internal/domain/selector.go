package domain

import (
	"strings"
)

// Selector is one step of a Path. It is a closed sum of Field and Match;
// resolvers switch over the two concrete types exhaustively.
type Selector interface {
	// String renders the selector in path notation.
	String() string

	isSelector()
}

// Field projects a named field from a Mapping.
type Field struct {
	// Name is the field to project.
	Name string
}

// Match selects, from a Sequence, the first Mapping whose Field equals
// Value. Applied to a Mapping it passes the mapping through when its
// Field equals Value.
//
// When Filter is set an unsatisfied match skips the record for the
// current group instead of failing the run. Filters let one flat
// collection (every county nationwide, say) be folded per region without
// pre-partitioning it.
type Match struct {
	Field  string
	Value  string
	Filter bool
}

var (
	_ Selector = Field{}
	_ Selector = Match{}
)

func (Field) isSelector() {}
func (Match) isSelector() {}

// String implements Selector.
func (f Field) String() string { return f.Name }

// String implements Selector. Filter matches carry a trailing '?'.
func (m Match) String() string {
	s := m.Field + "=" + m.Value
	if m.Filter {
		s += "?"
	}
	return s
}

// Path is an ordered list of selectors applied left to right from a root
// record. A Path used for value extraction must end at a Scalar.
type Path []Selector

// String renders the path as slash-separated selectors, e.g.
// "region_key=GA?/candidates/last_name=Biden/votes".
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, "/")
}

// Placeholders recognised by PathTemplate.Bind.
const (
	PlaceholderCandidate = "{candidate}"
	PlaceholderRegion    = "{region}"
	PlaceholderBreakdown = "{breakdown}"
)

// PathTemplate is a Path whose field names and match values may reference
// the dimensions of a GroupKey through placeholders.
type PathTemplate Path

// Bind substitutes the key's dimension values into the template and
// returns a concrete Path. The template itself is not modified.
func (t PathTemplate) Bind(key GroupKey) Path {
	r := strings.NewReplacer(
		PlaceholderCandidate, key.Candidate,
		PlaceholderRegion, key.Region,
		PlaceholderBreakdown, key.Breakdown,
	)
	out := make(Path, len(t))
	for i, s := range t {
		switch sel := s.(type) {
		case Field:
			out[i] = Field{Name: r.Replace(sel.Name)}
		case Match:
			out[i] = Match{
				Field:  r.Replace(sel.Field),
				Value:  r.Replace(sel.Value),
				Filter: sel.Filter,
			}
		}
	}
	return out
}

// String renders the unbound template.
func (t PathTemplate) String() string { return Path(t).String() }
