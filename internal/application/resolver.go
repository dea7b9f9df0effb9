package application

import (
	"github.com/ahrav/go-benford/internal/domain"
)

// Walk navigates root along path and returns the record it reaches.
//
// ok is false, with a nil error, when a filter Match was unsatisfied or a
// Match applied to a mapping did not equal its value: the record does not
// belong to the current group and is skipped. Every other navigation
// failure, including a non-filter Match with no hit in a sequence, is a
// fatal *domain.PathError, since it means the data does not have the
// shape the path assumes.
func Walk(root domain.Record, path domain.Path) (node domain.Record, ok bool, err error) {
	node = root
	for i, sel := range path {
		switch s := sel.(type) {
		case domain.Field:
			m, isMap := node.(domain.Mapping)
			if !isMap {
				return nil, false, domain.NewPathError(path, i, node, domain.ErrUnexpectedShape)
			}
			next, found := m[s.Name]
			if !found {
				return nil, false, domain.NewPathError(path, i, node, domain.ErrFieldNotFound)
			}
			node = next

		case domain.Match:
			next, matched, err := match(node, s, path, i)
			if err != nil {
				return nil, false, err
			}
			if !matched {
				// A mapping failing its predicate is absent, like a filter.
				if _, isMap := node.(domain.Mapping); s.Filter || isMap {
					return nil, false, nil
				}
				return nil, false, domain.NewPathError(path, i, node, domain.ErrSelectorUnsatisfied)
			}
			node = next

		default:
			return nil, false, domain.NewPathError(path, i, node, domain.ErrInvalidState)
		}
	}
	return node, true, nil
}

// match applies a Match selector to a sequence (first matching element)
// or to a mapping (pass-through when the field equals the value).
func match(node domain.Record, s domain.Match, path domain.Path, step int) (domain.Record, bool, error) {
	switch n := node.(type) {
	case domain.Sequence:
		for _, elem := range n {
			m, isMap := elem.(domain.Mapping)
			if !isMap {
				return nil, false, domain.NewPathError(path, step, elem, domain.ErrUnexpectedShape)
			}
			eq, err := fieldEquals(m, s, path, step)
			if err != nil {
				return nil, false, err
			}
			if eq {
				return m, true, nil
			}
		}
		return nil, false, nil

	case domain.Mapping:
		eq, err := fieldEquals(n, s, path, step)
		if err != nil {
			return nil, false, err
		}
		return n, eq, nil

	default:
		return nil, false, domain.NewPathError(path, step, node, domain.ErrUnexpectedShape)
	}
}

func fieldEquals(m domain.Mapping, s domain.Match, path domain.Path, step int) (bool, error) {
	v, found := m[s.Field]
	if !found {
		return false, domain.NewPathError(path, step, m, domain.ErrFieldNotFound)
	}
	sc, isScalar := v.(domain.Scalar)
	if !isScalar {
		return false, domain.NewPathError(path, step, v, domain.ErrUnexpectedShape)
	}
	return string(sc) == s.Value, nil
}

// Resolve walks root along path and requires the result to be a scalar.
// It has the same skip semantics as Walk.
func Resolve(root domain.Record, path domain.Path) (domain.Scalar, bool, error) {
	node, ok, err := Walk(root, path)
	if err != nil || !ok {
		return "", ok, err
	}
	sc, isScalar := node.(domain.Scalar)
	if !isScalar {
		return "", false, domain.NewPathError(path, len(path), node, domain.ErrUnexpectedShape)
	}
	return sc, true, nil
}

// Collection walks root along path and requires the result to be a
// sequence. Profiles use it to reach the record list a pass folds over.
// Filters are not meaningful here; an unsatisfied filter yields an empty
// sequence.
func Collection(root domain.Record, path domain.Path) (domain.Sequence, error) {
	node, ok, err := Walk(root, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return domain.Sequence{}, nil
	}
	seq, isSeq := node.(domain.Sequence)
	if !isSeq {
		return nil, domain.NewPathError(path, len(path), node, domain.ErrUnexpectedShape)
	}
	return seq, nil
}
