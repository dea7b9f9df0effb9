// Package domain contains pure, dependency-free domain models and types
// for the digit-frequency engine.
package domain

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Record is one node of a loaded election dataset: a county, a choice,
// a candidate entry, a vote-type bucket. It is a closed sum of Scalar,
// Sequence and Mapping; no schema is assumed beyond what a Path requires.
type Record interface {
	// Kind reports which variant the record is.
	Kind() RecordKind

	isRecord()
}

// RecordKind names the variant of a Record.
type RecordKind int

// Supported record variants.
const (
	KindScalar RecordKind = iota
	KindSequence
	KindMapping
)

// String returns the lower-case variant name used in error messages.
func (k RecordKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Scalar is a leaf value kept in its textual form. Loaders never coerce
// vote counts; parsing happens once, in ParseVotes, so a malformed value
// surfaces as a ParseError instead of a silent zero.
type Scalar string

// Sequence is an ordered list of records.
type Sequence []Record

// Mapping is a record keyed by field name.
type Mapping map[string]Record

var (
	_ Record = Scalar("")
	_ Record = Sequence(nil)
	_ Record = Mapping(nil)
)

// Kind implements Record.
func (Scalar) Kind() RecordKind { return KindScalar }

// Kind implements Record.
func (Sequence) Kind() RecordKind { return KindSequence }

// Kind implements Record.
func (Mapping) Kind() RecordKind { return KindMapping }

func (Scalar) isRecord()   {}
func (Sequence) isRecord() {}
func (Mapping) isRecord()  {}

// String returns the raw text of the scalar.
func (s Scalar) String() string { return string(s) }

// Text returns the scalar stored under field, if present and a scalar.
func (m Mapping) Text(field string) (string, bool) {
	v, ok := m[field]
	if !ok {
		return "", false
	}
	s, ok := v.(Scalar)
	if !ok {
		return "", false
	}
	return string(s), true
}

// With returns a shallow copy of the mapping with field set to value.
// The receiver is left untouched so records shared between passes are
// never mutated.
func (m Mapping) With(field string, value Record) Mapping {
	out := maps.Clone(m)
	if out == nil {
		out = make(Mapping, 1)
	}
	out[field] = value
	return out
}

// Fields returns the mapping's field names in sorted order.
func (m Mapping) Fields() []string {
	return slices.Sorted(maps.Keys(m))
}

// Distinct returns the distinct scalar values of field across the
// mapping records of seq, in first-seen order. Non-mapping elements and
// elements without the field are ignored. Profiles use it to enumerate a
// breakdown dimension (vote types, for instance) from the data itself.
func Distinct(seq Sequence, field string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range seq {
		m, ok := r.(Mapping)
		if !ok {
			continue
		}
		v, ok := m.Text(field)
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Describe renders a short, single-line description of a record for
// error messages.
func Describe(r Record) string {
	switch v := r.(type) {
	case Scalar:
		return fmt.Sprintf("scalar %q", string(v))
	case Sequence:
		return fmt.Sprintf("sequence(len=%d)", len(v))
	case Mapping:
		return fmt.Sprintf("mapping{%s}", strings.Join(v.Fields(), ","))
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("%T", r)
	}
}
