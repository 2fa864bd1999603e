package schema

import (
	"fmt"
	"strings"

	"github.com/arloliu/tdm/errs"
	"github.com/arloliu/tdm/usi"
	"github.com/arloliu/tdm/xmltree"
)

// ChannelGroup is one entry of the root's channel-group list.
type ChannelGroup struct {
	Index       int
	ID          string
	Name        string
	Description string

	channelIDs []string
}

// ChannelCount returns the number of identifiers in the group's channel list.
func (g *ChannelGroup) ChannelCount() int {
	return len(g.channelIDs)
}

// ChannelIDs returns the channel identifiers of the group in document order.
func (g *ChannelGroup) ChannelIDs() []string {
	return g.channelIDs
}

// Channel is a resolved tdm_channel element.
type Channel struct {
	Group       *ChannelGroup
	Index       int
	ID          string
	Name        string
	Unit        string
	Description string
	DataType    string

	elem *xmltree.Element
}

// GroupMatch is one result of GroupSearch.
type GroupMatch struct {
	Name  string
	Index int
}

// ChannelMatch is one result of ChannelSearch.
type ChannelMatch struct {
	Name    string
	Group   int
	Channel int
}

// GroupCount returns the number of channel groups.
func (doc *Document) GroupCount() int {
	return len(doc.groups)
}

// Group resolves a channel group by position or name.
//
// Parameters:
//   - sel: ByIndex (negative counts from the end) or ByName/ByNameAt
//
// Returns:
//   - *ChannelGroup: The selected group
//   - error: errs.ErrOutOfRange, errs.ErrNotFound, errs.ErrAmbiguousOccurrence or
//     errs.ErrTypeMismatch for the zero Selector
func (doc *Document) Group(sel Selector) (*ChannelGroup, error) {
	if err := sel.validate("group"); err != nil {
		return nil, err
	}

	if sel.IsIndex() {
		i, err := normalizeIndex(sel.index, len(doc.groups), "group index")
		if err != nil {
			return nil, err
		}

		return doc.groups[i], nil
	}

	var matches []int
	for i, g := range doc.groups {
		if g.Name == sel.name {
			matches = append(matches, i)
		}
	}

	i, err := pickOccurrence(matches, sel, "group")
	if err != nil {
		return nil, err
	}

	return doc.groups[i], nil
}

// GroupIndex returns the position of the occurrence-th group named name.
func (doc *Document) GroupIndex(name string, occurrence int) (int, error) {
	g, err := doc.Group(ByNameAt(name, occurrence))
	if err != nil {
		return 0, err
	}

	return g.Index, nil
}

// ChannelCount returns the number of channels of the selected group.
func (doc *Document) ChannelCount(group Selector) (int, error) {
	g, err := doc.Group(group)
	if err != nil {
		return 0, err
	}

	return g.ChannelCount(), nil
}

// Channel resolves the group first, then a channel within it, using the same
// position and name rules for both.
//
// Channel elements are resolved on demand, so a dangling reference in the
// group's channel list surfaces here as errs.ErrReferenceNotFound.
func (doc *Document) Channel(group, channel Selector) (*Channel, error) {
	g, err := doc.Group(group)
	if err != nil {
		return nil, err
	}
	if err := channel.validate("channel"); err != nil {
		return nil, err
	}

	if channel.IsIndex() {
		i, err := normalizeIndex(channel.index, len(g.channelIDs), "channel index")
		if err != nil {
			return nil, err
		}

		return doc.channelAt(g, i)
	}

	var matches []int
	for i := range g.channelIDs {
		ch, err := doc.channelAt(g, i)
		if err != nil {
			return nil, err
		}
		if ch.Name == channel.name {
			matches = append(matches, i)
		}
	}

	i, err := pickOccurrence(matches, channel, "channel")
	if err != nil {
		return nil, err
	}

	return doc.channelAt(g, i)
}

// Channels resolves every channel of the group in document order.
func (doc *Document) Channels(group Selector) ([]*Channel, error) {
	g, err := doc.Group(group)
	if err != nil {
		return nil, err
	}

	out := make([]*Channel, len(g.channelIDs))
	for i := range g.channelIDs {
		if out[i], err = doc.channelAt(g, i); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (doc *Document) channelAt(g *ChannelGroup, i int) (*Channel, error) {
	e, err := doc.index.Resolve(g.channelIDs[i], usi.KindChannel)
	if err != nil {
		return nil, fmt.Errorf("group %d channel %d: %w", g.Index, i, err)
	}

	return &Channel{
		Group:       g,
		Index:       i,
		ID:          e.ID(),
		Name:        e.ChildText("name"),
		Unit:        e.ChildText("unit_string"),
		Description: e.ChildText("description"),
		DataType:    e.ChildText("datatype"),
		elem:        e,
	}, nil
}

func normalizeTerm(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, " ", ""))
}

// GroupSearch returns every named group whose name contains term, ignoring case
// and spaces on both sides. An empty term matches every named group.
func (doc *Document) GroupSearch(term string) []GroupMatch {
	needle := normalizeTerm(term)
	out := []GroupMatch{}
	for _, g := range doc.groups {
		if g.Name == "" {
			continue
		}
		if strings.Contains(normalizeTerm(g.Name), needle) {
			out = append(out, GroupMatch{Name: g.Name, Index: g.Index})
		}
	}

	return out
}

// ChannelSearch returns every channel whose name contains term, ignoring case
// and spaces, in group-major order. Unlike GroupSearch, an empty term matches
// nothing.
func (doc *Document) ChannelSearch(term string) ([]ChannelMatch, error) {
	needle := normalizeTerm(term)
	out := []ChannelMatch{}
	if needle == "" {
		return out, nil
	}

	for _, g := range doc.groups {
		for i := range g.channelIDs {
			ch, err := doc.channelAt(g, i)
			if err != nil {
				return nil, err
			}
			if ch.Name != "" && strings.Contains(normalizeTerm(ch.Name), needle) {
				out = append(out, ChannelMatch{Name: ch.Name, Group: g.Index, Channel: i})
			}
		}
	}

	return out, nil
}

// TotalChannels returns the number of channels over all groups.
func (doc *Document) TotalChannels() int {
	n := 0
	for _, g := range doc.groups {
		n += len(g.channelIDs)
	}

	return n
}

// ColumnIndex flattens a (group, channel) position into the document-order
// column number across all groups.
func (doc *Document) ColumnIndex(group, channel int) (int, error) {
	g, err := doc.Group(ByIndex(group))
	if err != nil {
		return 0, err
	}
	c, err := normalizeIndex(channel, len(g.channelIDs), "channel index")
	if err != nil {
		return 0, err
	}

	col := 0
	for _, prev := range doc.groups[:g.Index] {
		col += len(prev.channelIDs)
	}

	return col + c, nil
}

// ChannelAt is the inverse of ColumnIndex.
func (doc *Document) ChannelAt(column int) (group, channel int, err error) {
	total := doc.TotalChannels()
	column, err = normalizeIndex(column, total, "column")
	if err != nil {
		return 0, 0, err
	}

	for _, g := range doc.groups {
		if column < len(g.channelIDs) {
			return g.Index, column, nil
		}
		column -= len(g.channelIDs)
	}

	return 0, 0, fmt.Errorf("column %d: %w", column, errs.ErrOutOfRange)
}
