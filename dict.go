package tdm

import (
	"log/slog"

	"github.com/arloliu/tdm/internal/names"
	"github.com/arloliu/tdm/schema"
)

// Dict maps the channel names of one group to their samples.
type Dict struct {
	Group    string
	Channels map[string][]float64
	Strings  map[string][]string
	// Duplicates lists every name shared by more than one channel, in the
	// order the repeats were met. For those names the last channel wins.
	Duplicates []string
}

// Len returns the number of distinct names.
func (d *Dict) Len() int {
	return len(d.Channels) + len(d.Strings)
}

// ChannelDict resolves every channel of a group into a name-keyed mapping.
//
// Duplicate names are not an error: later channels overwrite earlier ones and
// a warning listing the duplicated names is logged and recorded in Duplicates.
func (f *File) ChannelDict(group schema.Selector) (*Dict, error) {
	g, err := f.doc.Group(group)
	if err != nil {
		return nil, err
	}

	chs, err := f.doc.Channels(schema.ByIndex(g.Index))
	if err != nil {
		return nil, err
	}

	d := &Dict{
		Group:    g.Name,
		Channels: make(map[string][]float64, len(chs)),
		Strings:  make(map[string][]string),
	}
	tracker := names.NewTracker()

	for _, ch := range chs {
		tracker.Track(ch.Name)

		col, _, err := f.column(schema.ByIndex(g.Index), schema.ByIndex(ch.Index))
		if err != nil {
			return nil, err
		}

		if col.IsText() {
			delete(d.Channels, ch.Name)
			d.Strings[ch.Name] = append([]string(nil), col.Text...)

			continue
		}
		delete(d.Strings, ch.Name)
		d.Channels[ch.Name] = append([]float64(nil), col.Values...)
	}

	if tracker.HasDuplicates() {
		d.Duplicates = tracker.Duplicates()
		f.logger.Warn("duplicate channel names in group, last channel wins",
			slog.String("group", g.Name),
			slog.Int("group_index", g.Index),
			slog.Any("names", d.Duplicates),
		)
	}

	return d, nil
}

// Column returns channel i of the first group.
func (f *File) Column(i int) ([]float64, error) {
	return f.Channel(schema.ByIndex(0), schema.ByIndex(i))
}

// At returns channel c of group g.
func (f *File) At(g, c int) ([]float64, error) {
	return f.Channel(schema.ByIndex(g), schema.ByIndex(c))
}

// ByName returns the channel of the first group named name. When several
// channels share the name the last one is returned and a warning is logged.
func (f *File) ByName(name string) ([]float64, error) {
	chs, err := f.doc.Channels(schema.ByIndex(0))
	if err != nil {
		return nil, err
	}

	matches := 0
	for _, ch := range chs {
		if ch.Name == name {
			matches++
		}
	}
	if matches > 1 {
		f.logger.Warn("channel name is not unique in first group, using the last one",
			slog.String("name", name),
			slog.Int("matches", matches),
		)
	}

	return f.Channel(schema.ByIndex(0), schema.ByNameAt(name, -1))
}
