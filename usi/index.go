package usi

import (
	"fmt"
	"strings"

	"github.com/arloliu/tdm/errs"
	"github.com/arloliu/tdm/internal/hash"
	"github.com/arloliu/tdm/xmltree"
)

// Kind classifies the elements a reference may point at.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindRoot
	KindChannelGroup
	KindChannel
	KindLocalColumn
	KindSubmatrix
	KindSequence
	KindBlock
)

// sequenceSuffix marks the typed value sequences (double_sequence, string_sequence, ...).
const sequenceSuffix = "_sequence"

// KindOf classifies an element by its tag name.
func KindOf(e *xmltree.Element) Kind {
	switch e.Name {
	case "tdm_root":
		return KindRoot
	case "tdm_channelgroup":
		return KindChannelGroup
	case "tdm_channel":
		return KindChannel
	case "localcolumn":
		return KindLocalColumn
	case "submatrix":
		return KindSubmatrix
	case "block":
		return KindBlock
	}

	if strings.HasSuffix(e.Name, sequenceSuffix) {
		return KindSequence
	}

	return KindUnknown
}

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "tdm_root"
	case KindChannelGroup:
		return "tdm_channelgroup"
	case KindChannel:
		return "tdm_channel"
	case KindLocalColumn:
		return "localcolumn"
	case KindSubmatrix:
		return "submatrix"
	case KindSequence:
		return "sequence"
	case KindBlock:
		return "block"
	default:
		return "unknown"
	}
}

type entry struct {
	id   string
	kind Kind
	elem *xmltree.Element
}

// Index is the identifier arena of one document.
//
// Entries are bucketed by the xxHash64 of their identifier and compared by the
// full string inside a bucket, so hash collisions never mis-resolve. Buckets
// keep document order.
type Index struct {
	buckets map[uint64][]entry
	byKind  map[Kind][]*xmltree.Element
	size    int
}

// NewIndex walks root once and indexes every element carrying an id attribute.
func NewIndex(root *xmltree.Element) *Index {
	idx := &Index{
		buckets: make(map[uint64][]entry),
		byKind:  make(map[Kind][]*xmltree.Element),
	}

	root.Walk(func(e *xmltree.Element) bool {
		id, ok := e.LookupAttr("id")
		if !ok {
			return true
		}

		kind := KindOf(e)
		h := hash.ID(id)
		idx.buckets[h] = append(idx.buckets[h], entry{id: id, kind: kind, elem: e})
		idx.byKind[kind] = append(idx.byKind[kind], e)
		idx.size++

		return true
	})

	return idx
}

// Len returns the number of indexed elements.
func (idx *Index) Len() int {
	return idx.size
}

// Elements returns every indexed element of kind, in document order.
func (idx *Index) Elements(kind Kind) []*xmltree.Element {
	return idx.byKind[kind]
}

// Resolve returns the unique element of kind whose identifier is id.
//
// Returns:
//   - *xmltree.Element: The referenced element
//   - error: errs.ErrReferenceNotFound when nothing of that kind carries id,
//     errs.ErrDuplicateReference when more than one element does
func (idx *Index) Resolve(id string, kind Kind) (*xmltree.Element, error) {
	var found *xmltree.Element
	for _, e := range idx.buckets[hash.ID(id)] {
		if e.kind != kind || e.id != id {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%s id(%q): %w", kind, id, errs.ErrDuplicateReference)
		}
		found = e.elem
	}

	if found == nil {
		return nil, fmt.Errorf("%s id(%q): %w", kind, id, errs.ErrReferenceNotFound)
	}

	return found, nil
}

// ResolveFirst resolves the first id("X") token of text.
//
// Blank text or text without a token is reported as errs.ErrReferenceNotFound.
func (idx *Index) ResolveFirst(text string, kind Kind) (*xmltree.Element, error) {
	id, ok := First(text)
	if !ok {
		return nil, fmt.Errorf("%s reference in %q: %w", kind, strings.TrimSpace(text), errs.ErrReferenceNotFound)
	}

	return idx.Resolve(id, kind)
}

// ResolveAll resolves every id("X") token of text in source order.
//
// The first unresolvable token aborts the whole list.
func (idx *Index) ResolveAll(text string, kind Kind) ([]*xmltree.Element, error) {
	ids := Refs(text)
	out := make([]*xmltree.Element, 0, len(ids))
	for _, id := range ids {
		e, err := idx.Resolve(id, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}

	return out, nil
}
