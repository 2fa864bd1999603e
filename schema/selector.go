package schema

import (
	"fmt"

	"github.com/arloliu/tdm/errs"
)

type selectorKind uint8

const (
	selectNone selectorKind = iota
	selectIndex
	selectName
)

// Selector addresses a channel group or a channel either by position or by name.
//
// Positions are 0-based and may be negative to count from the end (-1 is the
// last element). Names match exactly; occurrence picks among elements sharing a
// name and may likewise be negative. The zero Selector addresses nothing and is
// rejected with errs.ErrTypeMismatch.
type Selector struct {
	kind       selectorKind
	index      int
	name       string
	occurrence int
}

// ByIndex selects the element at position i.
func ByIndex(i int) Selector {
	return Selector{kind: selectIndex, index: i}
}

// ByName selects the first element named name.
func ByName(name string) Selector {
	return Selector{kind: selectName, name: name}
}

// ByNameAt selects the occurrence-th element named name.
func ByNameAt(name string, occurrence int) Selector {
	return Selector{kind: selectName, name: name, occurrence: occurrence}
}

// IsIndex reports whether s selects by position.
func (s Selector) IsIndex() bool {
	return s.kind == selectIndex
}

// IsName reports whether s selects by name.
func (s Selector) IsName() bool {
	return s.kind == selectName
}

// Index returns the position of an index selector.
func (s Selector) Index() int {
	return s.index
}

// Name returns the name of a name selector.
func (s Selector) Name() string {
	return s.name
}

// Occurrence returns the occurrence of a name selector.
func (s Selector) Occurrence() int {
	return s.occurrence
}

func (s Selector) String() string {
	switch s.kind {
	case selectIndex:
		return fmt.Sprintf("%d", s.index)
	case selectName:
		if s.occurrence != 0 {
			return fmt.Sprintf("%q#%d", s.name, s.occurrence)
		}

		return fmt.Sprintf("%q", s.name)
	default:
		return "<none>"
	}
}

func (s Selector) validate(what string) error {
	if s.kind == selectNone {
		return fmt.Errorf("%s selector is neither an index nor a name: %w", what, errs.ErrTypeMismatch)
	}

	return nil
}

// normalizeIndex maps a possibly negative position onto [0, count).
func normalizeIndex(i, count int, what string) (int, error) {
	if i < -count || i >= count {
		return 0, fmt.Errorf("%s %d not in [%d, %d): %w", what, i, -count, count, errs.ErrOutOfRange)
	}
	if i < 0 {
		i += count
	}

	return i, nil
}

// pickOccurrence selects among the positions whose name matched.
func pickOccurrence(matches []int, s Selector, what string) (int, error) {
	if len(matches) == 0 {
		return 0, fmt.Errorf("%s name %q: %w", what, s.name, errs.ErrNotFound)
	}

	occ := s.occurrence
	if occ < -len(matches) || occ >= len(matches) {
		return 0, fmt.Errorf("%s name %q occurs %d time(s), occurrence %d requested: %w",
			what, s.name, len(matches), occ, errs.ErrAmbiguousOccurrence)
	}
	if occ < 0 {
		occ += len(matches)
	}

	return matches[occ], nil
}
