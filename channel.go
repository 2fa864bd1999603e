package tdm

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/arloliu/tdm/errs"
	"github.com/arloliu/tdm/schema"
	"github.com/arloliu/tdm/sequence"
)

// DataTypeDate is the datatype of channels holding timestamps.
const DataTypeDate = "DT_DATE"

// dateEpochUnix is 0000-01-01T00:00:00Z in Unix seconds, the origin of DT_DATE values.
var dateEpochUnix = time.Date(0, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()

// ChannelGroupCount returns the number of channel groups.
func (f *File) ChannelGroupCount() int {
	return f.doc.GroupCount()
}

// ChannelCount returns the number of channels in the selected group.
func (f *File) ChannelCount(group schema.Selector) (int, error) {
	return f.doc.ChannelCount(group)
}

// Len returns the number of channels over all groups.
func (f *File) Len() int {
	return f.doc.TotalChannels()
}

// Channel returns the numeric samples of a channel. Masked samples are NaN.
//
// Parameters:
//   - group: Channel group by position or name
//   - channel: Channel within the group by position or name
//
// Returns:
//   - []float64: Samples owned by the caller
//   - error: errs.ErrOutOfRange, errs.ErrNotFound, errs.ErrAmbiguousOccurrence,
//     errs.ErrNotNumericChannel for text channels, or a decoding error
func (f *File) Channel(group, channel schema.Selector) ([]float64, error) {
	col, _, err := f.column(group, channel)
	if err != nil {
		return nil, err
	}
	if col.IsText() {
		return nil, fmt.Errorf("group %s channel %s: %w", group, channel, errs.ErrNotNumericChannel)
	}

	out := make([]float64, len(col.Values))
	copy(out, col.Values)

	return out, nil
}

// ChannelData returns the resolved column with its missing-sample mask.
// The column is shared with the cache and must not be modified.
func (f *File) ChannelData(group, channel schema.Selector) (*sequence.Column, error) {
	col, _, err := f.column(group, channel)
	return col, err
}

// ChannelStrings returns the values of a text channel.
func (f *File) ChannelStrings(group, channel schema.Selector) ([]string, error) {
	col, _, err := f.column(group, channel)
	if err != nil {
		return nil, err
	}
	if !col.IsText() {
		return nil, fmt.Errorf("group %s channel %s: %w", group, channel, errs.ErrNotTextChannel)
	}

	out := make([]string, len(col.Text))
	copy(out, col.Text)

	return out, nil
}

// ChannelTimes converts a DT_DATE channel into UTC timestamps. DT_DATE samples
// count seconds since 0000-01-01T00:00:00Z; masked samples become the zero Time.
func (f *File) ChannelTimes(group, channel schema.Selector) ([]time.Time, error) {
	col, ch, err := f.column(group, channel)
	if err != nil {
		return nil, err
	}
	if ch.DataType != DataTypeDate || col.IsText() {
		return nil, fmt.Errorf("channel %q has datatype %q, want %s: %w",
			ch.Name, ch.DataType, DataTypeDate, errs.ErrTypeMismatch)
	}

	out := make([]time.Time, len(col.Values))
	for i, v := range col.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		whole, frac := math.Modf(v)
		if frac < 0 {
			whole--
			frac++
		}
		out[i] = time.Unix(dateEpochUnix+int64(whole), int64(math.Round(frac*1e9))).UTC()
	}

	return out, nil
}

// ChannelName returns the channel name, or "" when absent.
func (f *File) ChannelName(group, channel schema.Selector) (string, error) {
	ch, err := f.doc.Channel(group, channel)
	if err != nil {
		return "", err
	}

	return ch.Name, nil
}

// ChannelUnit returns the unit_string of the channel, or "" when absent.
func (f *File) ChannelUnit(group, channel schema.Selector) (string, error) {
	ch, err := f.doc.Channel(group, channel)
	if err != nil {
		return "", err
	}

	return ch.Unit, nil
}

// ChannelDescription returns the channel description, or "" when absent.
func (f *File) ChannelDescription(group, channel schema.Selector) (string, error) {
	ch, err := f.doc.Channel(group, channel)
	if err != nil {
		return "", err
	}

	return ch.Description, nil
}

// ChannelGroupName returns the name of the group at position i.
func (f *File) ChannelGroupName(i int) (string, error) {
	g, err := f.doc.Group(schema.ByIndex(i))
	if err != nil {
		return "", err
	}

	return g.Name, nil
}

// ChannelGroupIndex returns the position of the occurrence-th group named name.
func (f *File) ChannelGroupIndex(name string, occurrence int) (int, error) {
	return f.doc.GroupIndex(name, occurrence)
}

// ChannelGroupSearch finds groups whose name contains term, ignoring case and
// spaces. An empty term lists every named group.
func (f *File) ChannelGroupSearch(term string) []schema.GroupMatch {
	return f.doc.GroupSearch(term)
}

// ChannelSearch finds channels whose name contains term, ignoring case and
// spaces. An empty term finds nothing.
func (f *File) ChannelSearch(term string) ([]schema.ChannelMatch, error) {
	return f.doc.ChannelSearch(term)
}

// ColumnIndex returns the document-order column number of a channel.
func (f *File) ColumnIndex(group, channel int) (int, error) {
	return f.doc.ColumnIndex(group, channel)
}

// ChannelIndices maps a column number back to group and channel positions.
func (f *File) ChannelIndices(column int) (group, channel int, err error) {
	return f.doc.ChannelAt(column)
}

// column resolves a channel and returns its cached column.
func (f *File) column(group, channel schema.Selector) (*sequence.Column, *schema.Channel, error) {
	f.life.RLock()
	defer f.life.RUnlock()

	if err := f.check(); err != nil {
		return nil, nil, err
	}

	ch, err := f.doc.Channel(group, channel)
	if err != nil {
		return nil, nil, err
	}

	lc, err := f.doc.LocalColumn(ch)
	if err != nil {
		return nil, nil, err
	}

	f.mu.Lock()
	col, ok := f.cache[lc.ID]
	f.mu.Unlock()
	if ok {
		return col, ch, nil
	}

	if lc.FlagsID == "" && lc.HasGlobalFlag && lc.GlobalFlag == 0 {
		f.logger.Debug("masking column by global flag",
			slog.String("channel", ch.Name),
			slog.String("local_column", lc.ID),
		)
	}

	col, err = sequence.Resolve(f.src, lc)
	if err != nil {
		return nil, nil, fmt.Errorf("channel %q (%s): %w", ch.Name, ch.ID, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cache == nil {
		return nil, nil, fmt.Errorf("tdm %q: %w", f.path, errs.ErrClosed)
	}
	if cached, ok := f.cache[lc.ID]; ok {
		return cached, ch, nil
	}
	f.cache[lc.ID] = col

	return col, ch, nil
}
