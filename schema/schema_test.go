package schema

import (
	"strings"
	"testing"

	"github.com/arloliu/tdm/endian"
	"github.com/arloliu/tdm/errs"
	"github.com/arloliu/tdm/format"
	"github.com/arloliu/tdm/xmltree"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<usi:tdm xmlns:usi="http://www.ni.com/Schemas/USI/1_0" version="1.0">
  <usi:documentation>
    <usi:exporter>National Instruments USI</usi:exporter>
  </usi:documentation>
  <usi:include>
    <file byteOrder="bigEndian" url="sample.tdx">
      <block byteOffset="0" id="inc0" length="4" valueType="eFloat64Usi"/>
      <block byteOffset="32" id="inc1" length="3" valueType="eInt16Usi"/>
      <block byteOffset="38" id="inc2" length="1" valueType="eComplexUsi"/>
    </file>
  </usi:include>
  <usi:data>
    <tdm_root id="r1"><title>sample</title><channelgroups>id("g1") id("g2") id("g3")</channelgroups></tdm_root>
    <tdm_channelgroup id="g1"><name>Measurement Run</name><description>first</description><channels>id("c1") id("c2") id("c3")</channels></tdm_channelgroup>
    <tdm_channelgroup id="g2"><name>channel2</name><channels>id("c4") id("c5")</channels></tdm_channelgroup>
    <tdm_channelgroup id="g3"><name>Measurement Run</name><channels>id("c6")</channels></tdm_channelgroup>
    <tdm_channel id="c1"><name>Time</name><unit_string>s</unit_string><datatype>DT_DOUBLE</datatype><local_columns>#xpointer(id("lc1"))</local_columns></tdm_channel>
    <tdm_channel id="c2"><name>Voltage</name><unit_string>V</unit_string><description>probe A</description><local_columns>#xpointer(id("lc2"))</local_columns></tdm_channel>
    <tdm_channel id="c3"><name>Voltage</name><local_columns>#xpointer(id("lc3"))</local_columns></tdm_channel>
    <tdm_channel id="c4"><name></name><local_columns>#xpointer(id("lc4"))</local_columns></tdm_channel>
    <tdm_channel id="c5"><local_columns>#xpointer(id("missing"))</local_columns></tdm_channel>
    <tdm_channel id="c6"><name>Current Amps</name><local_columns>#xpointer(id("lc5"))</local_columns></tdm_channel>
    <submatrix id="sm1"><number_of_rows>4</number_of_rows></submatrix>
    <localcolumn id="lc1"><submatrix>id("sm1")</submatrix><global_flag>15</global_flag><sequence_representation>implicit_linear</sequence_representation><values>id("s1")</values></localcolumn>
    <localcolumn id="lc2"><submatrix>id("sm1")</submatrix><sequence_representation>raw_linear</sequence_representation><generation_parameters>1.5 0.25</generation_parameters><values>id("s2")</values><flags>id("f1")</flags></localcolumn>
    <localcolumn id="lc3"><submatrix>id("sm1")</submatrix><sequence_representation>explicit</sequence_representation><values>id("s3")</values></localcolumn>
    <localcolumn id="lc4"><submatrix>id("nosm")</submatrix><sequence_representation>explicit</sequence_representation><values>id("s4")</values></localcolumn>
    <localcolumn id="lc5"><sequence_representation>raw_polynomial</sequence_representation><values>id("s1")</values></localcolumn>
    <double_sequence id="s1"><values external="inc0"/></double_sequence>
    <short_sequence id="s2"><values external="inc1"/></short_sequence>
    <double_sequence id="s3"><values><A>1.5 2</A><A>-3e2</A></values></double_sequence>
    <string_sequence id="s4"><values><s>alpha</s><s></s><s>gamma delta</s></values></string_sequence>
    <byte_sequence id="f1"><values external="inc2"/></byte_sequence>
  </usi:data>
</usi:tdm>`

func loadDoc(t *testing.T, text string) *Document {
	t.Helper()

	root, err := xmltree.Parse(strings.NewReader(text), nil)
	require.NoError(t, err)

	doc, err := Load(root)
	require.NoError(t, err)

	return doc
}

func TestLoad(t *testing.T) {
	doc := loadDoc(t, sampleDoc)

	require.Equal(t, "National Instruments USI", doc.Exporter())
	require.Equal(t, "sample", doc.Title())
	require.Equal(t, "sample.tdx", doc.TDXURL())
	require.Equal(t, endian.GetBigEndianEngine(), doc.ByteOrder())
	require.Equal(t, 3, doc.GroupCount())
	require.Len(t, doc.Groups(), 3)

	g := doc.Groups()[0]
	require.Equal(t, "g1", g.ID)
	require.Equal(t, "Measurement Run", g.Name)
	require.Equal(t, "first", g.Description)
	require.Equal(t, []string{"c1", "c2", "c3"}, g.ChannelIDs())
	require.Equal(t, "", doc.Groups()[1].Description)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "foreign root",
			doc:  `<html/>`,
			want: errs.ErrMalformedDocument,
		},
		{
			name: "foreign namespace",
			doc:  `<x:tdm xmlns:x="urn:other"/>`,
			want: errs.ErrMalformedDocument,
		},
		{
			name: "missing header",
			doc:  `<tdm><data><tdm_root id="r"/></data></tdm>`,
			want: errs.ErrMalformedHeader,
		},
		{
			name: "bad byte order",
			doc:  `<tdm><include><file byteOrder="middleEndian" url="x"/></include></tdm>`,
			want: errs.ErrMalformedHeader,
		},
		{
			name: "missing byte order",
			doc:  `<tdm><include><file url="x"/></include></tdm>`,
			want: errs.ErrMalformedHeader,
		},
		{
			name: "missing root",
			doc:  `<tdm><include><file byteOrder="littleEndian" url="x"/></include></tdm>`,
			want: errs.ErrMalformedDocument,
		},
		{
			name: "dangling group",
			doc: `<tdm><include><file byteOrder="littleEndian" url="x"/></include>
				<data><tdm_root id="r"><channelgroups>id("nope")</channelgroups></tdm_root></data></tdm>`,
			want: errs.ErrReferenceNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := xmltree.Parse(strings.NewReader(tt.doc), nil)
			require.NoError(t, err)

			_, err = Load(root)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoad_EmptyGroupList(t *testing.T) {
	doc := loadDoc(t, `<tdm><include><file byteOrder="littleEndian" url="x"/></include>
		<data><tdm_root id="r"><channelgroups></channelgroups></tdm_root></data></tdm>`)

	require.Equal(t, 0, doc.GroupCount())
	_, err := doc.Group(ByIndex(0))
	require.ErrorIs(t, err, errs.ErrOutOfRange)
	require.Empty(t, doc.GroupSearch(""))
}

func TestGroup(t *testing.T) {
	doc := loadDoc(t, sampleDoc)

	tests := []struct {
		name string
		sel  Selector
		want string
		err  error
	}{
		{name: "first", sel: ByIndex(0), want: "g1"},
		{name: "last", sel: ByIndex(2), want: "g3"},
		{name: "negative last", sel: ByIndex(-1), want: "g3"},
		{name: "negative first", sel: ByIndex(-3), want: "g1"},
		{name: "past end", sel: ByIndex(3), err: errs.ErrOutOfRange},
		{name: "before start", sel: ByIndex(-4), err: errs.ErrOutOfRange},
		{name: "by name", sel: ByName("channel2"), want: "g2"},
		{name: "first occurrence", sel: ByName("Measurement Run"), want: "g1"},
		{name: "second occurrence", sel: ByNameAt("Measurement Run", 1), want: "g3"},
		{name: "last occurrence", sel: ByNameAt("Measurement Run", -1), want: "g3"},
		{name: "occurrence overflow", sel: ByNameAt("Measurement Run", 2), err: errs.ErrAmbiguousOccurrence},
		{name: "unknown name", sel: ByName("nope"), err: errs.ErrNotFound},
		{name: "names are exact", sel: ByName("measurement run"), err: errs.ErrNotFound},
		{name: "zero selector", sel: Selector{}, err: errs.ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := doc.Group(tt.sel)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, g.ID)
		})
	}
}

func TestGroupIndexAndCounts(t *testing.T) {
	doc := loadDoc(t, sampleDoc)

	idx, err := doc.GroupIndex("Measurement Run", 1)
	require.NoError(t, err)
	require.Equal(t, 2, idx)

	_, err = doc.GroupIndex("Measurement Run", 5)
	require.ErrorIs(t, err, errs.ErrAmbiguousOccurrence)

	for i, want := range []int{3, 2, 1} {
		n, err := doc.ChannelCount(ByIndex(i))
		require.NoError(t, err)
		require.Equal(t, want, n)
	}

	last, err := doc.ChannelCount(ByIndex(-1))
	require.NoError(t, err)
	require.Equal(t, 1, last)

	_, err = doc.ChannelCount(ByIndex(3))
	require.ErrorIs(t, err, errs.ErrOutOfRange)

	require.Equal(t, 6, doc.TotalChannels())
}

func TestChannel(t *testing.T) {
	doc := loadDoc(t, sampleDoc)

	ch, err := doc.Channel(ByIndex(0), ByIndex(1))
	require.NoError(t, err)
	require.Equal(t, "c2", ch.ID)
	require.Equal(t, "Voltage", ch.Name)
	require.Equal(t, "V", ch.Unit)
	require.Equal(t, "probe A", ch.Description)
	require.Equal(t, 1, ch.Index)
	require.Equal(t, "g1", ch.Group.ID)

	ch, err = doc.Channel(ByName("Measurement Run"), ByNameAt("Voltage", 1))
	require.NoError(t, err)
	require.Equal(t, "c3", ch.ID)
	require.Equal(t, "", ch.Unit)
	require.Equal(t, "", ch.Description)

	ch, err = doc.Channel(ByIndex(0), ByIndex(-3))
	require.NoError(t, err)
	require.Equal(t, "Time", ch.Name)
	require.Equal(t, "DT_DOUBLE", ch.DataType)

	ch, err = doc.Channel(ByNameAt("Measurement Run", 1), ByIndex(0))
	require.NoError(t, err)
	require.Equal(t, "c6", ch.ID)

	_, err = doc.Channel(ByIndex(0), ByIndex(3))
	require.ErrorIs(t, err, errs.ErrOutOfRange)

	_, err = doc.Channel(ByIndex(0), ByNameAt("Voltage", 2))
	require.ErrorIs(t, err, errs.ErrAmbiguousOccurrence)

	_, err = doc.Channel(ByIndex(0), ByName("Current"))
	require.ErrorIs(t, err, errs.ErrNotFound)

	_, err = doc.Channel(ByIndex(9), ByIndex(0))
	require.ErrorIs(t, err, errs.ErrOutOfRange)

	_, err = doc.Channel(ByIndex(0), Selector{})
	require.ErrorIs(t, err, errs.ErrTypeMismatch)
}

func TestChannels(t *testing.T) {
	doc := loadDoc(t, sampleDoc)

	chs, err := doc.Channels(ByIndex(1))
	require.NoError(t, err)
	require.Len(t, chs, 2)
	require.Equal(t, "", chs[0].Name)
	require.Equal(t, "", chs[1].Name)
}

func TestGroupSearch(t *testing.T) {
	doc := loadDoc(t, sampleDoc)

	all := doc.GroupSearch("")
	require.Equal(t, []GroupMatch{
		{Name: "Measurement Run", Index: 0},
		{Name: "channel2", Index: 1},
		{Name: "Measurement Run", Index: 2},
	}, all)

	want := []GroupMatch{{Name: "channel2", Index: 1}}
	for _, term := range []string{"CHANNEL", "channel", "c h a n n e l", "NEL2"} {
		require.Equal(t, want, doc.GroupSearch(term), term)
	}

	require.Equal(t, []GroupMatch{
		{Name: "Measurement Run", Index: 0},
		{Name: "Measurement Run", Index: 2},
	}, doc.GroupSearch("mentrun"))

	require.Empty(t, doc.GroupSearch("nothing like it"))
}

func TestChannelSearch(t *testing.T) {
	doc := loadDoc(t, sampleDoc)

	empty, err := doc.ChannelSearch("")
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)

	blank, err := doc.ChannelSearch("   ")
	require.NoError(t, err)
	require.Empty(t, blank)

	got, err := doc.ChannelSearch("volt age")
	require.NoError(t, err)
	require.Equal(t, []ChannelMatch{
		{Name: "Voltage", Group: 0, Channel: 1},
		{Name: "Voltage", Group: 0, Channel: 2},
	}, got)

	got, err = doc.ChannelSearch("AMPS")
	require.NoError(t, err)
	require.Equal(t, []ChannelMatch{{Name: "Current Amps", Group: 2, Channel: 0}}, got)
}

func TestColumnIndex(t *testing.T) {
	doc := loadDoc(t, sampleDoc)

	tests := []struct {
		group, channel, column int
	}{
		{0, 0, 0},
		{0, 2, 2},
		{1, 0, 3},
		{1, 1, 4},
		{2, 0, 5},
		{-1, -1, 5},
	}
	for _, tt := range tests {
		col, err := doc.ColumnIndex(tt.group, tt.channel)
		require.NoError(t, err)
		require.Equal(t, tt.column, col)

		g, c, err := doc.ChannelAt(col)
		require.NoError(t, err)
		wantG, _ := normalizeIndex(tt.group, 3, "")
		require.Equal(t, wantG, g)
		n, _ := doc.ChannelCount(ByIndex(g))
		wantC, _ := normalizeIndex(tt.channel, n, "")
		require.Equal(t, wantC, c)
	}

	_, err := doc.ColumnIndex(1, 2)
	require.ErrorIs(t, err, errs.ErrOutOfRange)
	_, _, err = doc.ChannelAt(6)
	require.ErrorIs(t, err, errs.ErrOutOfRange)
}

func TestLocalColumn(t *testing.T) {
	doc := loadDoc(t, sampleDoc)

	ch, err := doc.Channel(ByIndex(0), ByIndex(0))
	require.NoError(t, err)
	lc, err := doc.LocalColumn(ch)
	require.NoError(t, err)
	require.Equal(t, "lc1", lc.ID)
	require.Equal(t, format.RepresentationImplicitLinear, lc.Representation)
	require.Equal(t, "s1", lc.ValuesID)
	require.Equal(t, "", lc.FlagsID)
	require.True(t, lc.HasGlobalFlag)
	require.Equal(t, int64(15), lc.GlobalFlag)

	rows, err := doc.RowCount(lc)
	require.NoError(t, err)
	require.Equal(t, 4, rows)

	ch, err = doc.Channel(ByIndex(0), ByIndex(1))
	require.NoError(t, err)
	lc, err = doc.LocalColumn(ch)
	require.NoError(t, err)
	require.Equal(t, format.RepresentationRawLinear, lc.Representation)
	require.Equal(t, "f1", lc.FlagsID)
	require.False(t, lc.HasGlobalFlag)

	offset, slope, err := lc.Linear()
	require.NoError(t, err)
	require.Equal(t, 1.5, offset)
	require.Equal(t, 0.25, slope)
}

func TestLocalColumn_Errors(t *testing.T) {
	doc := loadDoc(t, sampleDoc)

	ch, err := doc.Channel(ByIndex(1), ByIndex(1))
	require.NoError(t, err)
	_, err = doc.LocalColumn(ch)
	require.ErrorIs(t, err, errs.ErrReferenceNotFound)

	ch, err = doc.Channel(ByIndex(2), ByIndex(0))
	require.NoError(t, err)
	_, err = doc.LocalColumn(ch)
	require.ErrorIs(t, err, errs.ErrUnsupportedRepresentation)

	ch, err = doc.Channel(ByIndex(1), ByIndex(0))
	require.NoError(t, err)
	lc, err := doc.LocalColumn(ch)
	require.NoError(t, err)
	_, err = doc.RowCount(lc)
	require.ErrorIs(t, err, errs.ErrReferenceNotFound)

	_, _, err = (&LocalColumn{ID: "x", Generation: "1.0"}).Linear()
	require.ErrorIs(t, err, errs.ErrInvalidGenerationParameters)
	_, _, err = (&LocalColumn{ID: "x", Generation: "a b"}).Linear()
	require.ErrorIs(t, err, errs.ErrInvalidGenerationParameters)
}

func TestSequence(t *testing.T) {
	doc := loadDoc(t, sampleDoc)

	seq, err := doc.Sequence("s1")
	require.NoError(t, err)
	require.True(t, seq.External())
	require.Equal(t, "inc0", seq.BlockID)
	require.Equal(t, "double_sequence", seq.Kind)
	require.False(t, seq.Text)

	seq, err = doc.Sequence("s3")
	require.NoError(t, err)
	require.False(t, seq.External())
	require.Equal(t, []float64{1.5, 2, -300}, seq.Numbers)

	seq, err = doc.Sequence("s4")
	require.NoError(t, err)
	require.True(t, seq.Text)
	require.Equal(t, []string{"alpha", "", "gamma delta"}, seq.Strings)

	_, err = doc.Sequence("lc1")
	require.ErrorIs(t, err, errs.ErrReferenceNotFound)
}

func TestBlock(t *testing.T) {
	doc := loadDoc(t, sampleDoc)

	b, err := doc.Block("inc1")
	require.NoError(t, err)
	require.Equal(t, BlockRef{ID: "inc1", ByteOffset: 32, Length: 3, ValueType: format.ValueTypeInt16}, b)

	_, err = doc.Block("inc2")
	require.ErrorIs(t, err, errs.ErrUnknownValueType)

	_, err = doc.Block("inc9")
	require.ErrorIs(t, err, errs.ErrReferenceNotFound)
}
