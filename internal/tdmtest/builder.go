// Package tdmtest writes TDM/TDX file pairs for tests.
//
// A Builder collects channel groups and channels, lays their samples out in a
// TDX payload of the chosen byte order, and renders the matching TDM document.
// Write stores both files, optionally wrapping the document in a zip archive
// or one of the whole-document compressors.
package tdmtest

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/klauspost/compress/zip"

	"github.com/arloliu/tdm/compress"
	"github.com/arloliu/tdm/endian"
	"github.com/arloliu/tdm/format"
)

// Wrap selects the container Write stores the document in.
type Wrap uint8

const (
	WrapNone Wrap = iota
	WrapZip
	WrapZstd
	WrapS2      // S2 stream
	WrapLZ4     // LZ4 frame
	WrapS2Block // S2 block, needs a ".s2" suffix to be detected
	WrapLZ4Block
)

// Channel describes one channel to write.
type Channel struct {
	Name        string
	Unit        string
	Description string
	DataType    string // datatype element, e.g. "DT_DOUBLE" or "DT_DATE"

	// Representation defaults to "explicit".
	Representation string
	// ValueType of the value block, defaults to eFloat64Usi (eStringUsi when
	// Strings is set).
	ValueType format.ValueType
	Values    []float64
	Strings   []string
	// Inline embeds the values in the document instead of the TDX file.
	Inline bool

	Generation string
	Flags      []byte // written as an eUInt8Usi flags block when non-nil
	GlobalFlag *int64
	Rows       int // submatrix number_of_rows, defaults to the value count
}

// Group describes one channel group to write.
type Group struct {
	Name        string
	Description string
	Channels    []Channel
}

// Add appends channels to the group.
func (g *Group) Add(chs ...Channel) *Group {
	g.Channels = append(g.Channels, chs...)
	return g
}

// Builder assembles a TDM/TDX pair.
type Builder struct {
	engine   endian.EndianEngine
	url      string
	exporter string
	groups   []*Group
	rawOrder string // overrides the byteOrder attribute when set
}

// NewBuilder returns a little-endian builder whose TDX file is named data.tdx.
func NewBuilder() *Builder {
	return &Builder{
		engine:   endian.GetLittleEndianEngine(),
		url:      "data.tdx",
		exporter: "tdmtest",
	}
}

// BigEndian switches the TDX payload and the header to big-endian.
func (b *Builder) BigEndian() *Builder {
	b.engine = endian.GetBigEndianEngine()
	return b
}

// ByteOrderAttr writes attr verbatim as the byteOrder attribute.
func (b *Builder) ByteOrderAttr(attr string) *Builder {
	b.rawOrder = attr
	return b
}

// URL sets the url attribute of the file header.
func (b *Builder) URL(url string) *Builder {
	b.url = url
	return b
}

// Group appends a channel group.
func (b *Builder) Group(name string) *Group {
	g := &Group{Name: name}
	b.groups = append(b.groups, g)

	return g
}

// TDXName returns the url attribute the document will carry.
func (b *Builder) TDXName() string {
	return b.url
}

type block struct {
	id     string
	offset int
	length int
	vt     format.ValueType
}

type rendered struct {
	doc bytes.Buffer
	tdx []byte

	blocks []block
	data   bytes.Buffer
	nextID int
}

func (r *rendered) id(prefix string) string {
	r.nextID++
	return prefix + strconv.Itoa(r.nextID)
}

func (r *rendered) addBlock(vt format.ValueType, payload []byte, length int) string {
	id := "inc" + strconv.Itoa(len(r.blocks))
	r.blocks = append(r.blocks, block{id: id, offset: len(r.tdx), length: length, vt: vt})
	r.tdx = append(r.tdx, payload...)

	return id
}

// Build renders the TDM document and the TDX payload.
func (b *Builder) Build() (doc []byte, tdx []byte) {
	r := &rendered{}

	groupIDs := make([]string, len(b.groups))
	for gi, g := range b.groups {
		groupIDs[gi] = r.id("g")
		channelIDs := make([]string, len(g.Channels))
		for ci := range g.Channels {
			channelIDs[ci] = r.id("c")
		}

		fmt.Fprintf(&r.data, `<tdm_channelgroup id="%s"><name>%s</name><description>%s</description>`+
			`<channels>%s</channels></tdm_channelgroup>`+"\n",
			groupIDs[gi], escape(g.Name), escape(g.Description), refs(channelIDs...))

		for ci, ch := range g.Channels {
			b.channel(r, channelIDs[ci], ch)
		}
	}

	order := b.rawOrder
	if order == "" {
		order = endian.Name(b.engine)
	}

	var out bytes.Buffer
	out.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="no" ?>` + "\n")
	out.WriteString(`<usi:tdm xmlns:usi="http://www.ni.com/Schemas/USI/1_0" version="1.0">` + "\n")
	fmt.Fprintf(&out, "<usi:documentation><usi:exporter>%s</usi:exporter></usi:documentation>\n", escape(b.exporter))
	fmt.Fprintf(&out, `<usi:include><file byteOrder="%s" url="%s">`+"\n", escape(order), escape(b.url))
	for _, blk := range r.blocks {
		fmt.Fprintf(&out, `<block byteOffset="%d" id="%s" length="%d" valueType="%s"/>`+"\n",
			blk.offset, blk.id, blk.length, blk.vt)
	}
	out.WriteString("</file></usi:include>\n<usi:data>\n")
	fmt.Fprintf(&out, `<tdm_root id="root"><name>tdmtest</name><channelgroups>%s</channelgroups></tdm_root>`+"\n",
		refs(groupIDs...))
	out.Write(r.data.Bytes())
	out.WriteString("</usi:data>\n</usi:tdm>\n")

	return out.Bytes(), r.tdx
}

func (b *Builder) channel(r *rendered, channelID string, ch Channel) {
	lcID := r.id("lc")
	smID := r.id("sm")
	valuesID := r.id("s")

	dataType := ch.DataType
	if dataType == "" {
		dataType = "DT_DOUBLE"
		if ch.Strings != nil {
			dataType = "DT_STRING"
		}
	}

	fmt.Fprintf(&r.data, `<tdm_channel id="%s"><name>%s</name><description>%s</description>`+
		`<unit_string>%s</unit_string><datatype>%s</datatype><local_columns>#xpointer(%s)</local_columns></tdm_channel>`+"\n",
		channelID, escape(ch.Name), escape(ch.Description), escape(ch.Unit), dataType, refs(lcID))

	rows := ch.Rows
	if rows == 0 {
		rows = len(ch.Values)
		if ch.Strings != nil {
			rows = len(ch.Strings)
		}
	}
	fmt.Fprintf(&r.data, `<submatrix id="%s"><number_of_rows>%d</number_of_rows></submatrix>`+"\n", smID, rows)

	repr := ch.Representation
	if repr == "" {
		repr = format.RepresentationExplicit.String()
	}

	var extra strings.Builder
	if ch.Generation != "" {
		fmt.Fprintf(&extra, "<generation_parameters>%s</generation_parameters>", escape(ch.Generation))
	}
	if ch.GlobalFlag != nil {
		fmt.Fprintf(&extra, "<global_flag>%d</global_flag>", *ch.GlobalFlag)
	}
	if ch.Flags != nil {
		flagsID := r.id("s")
		blk := r.addBlock(format.ValueTypeUInt8, ch.Flags, len(ch.Flags))
		fmt.Fprintf(&r.data, `<byte_sequence id="%s"><values external="%s"/></byte_sequence>`+"\n", flagsID, blk)
		fmt.Fprintf(&extra, "<flags>%s</flags>", refs(flagsID))
	}

	fmt.Fprintf(&r.data, `<localcolumn id="%s"><name>%s</name><submatrix>%s</submatrix>%s`+
		`<sequence_representation>%s</sequence_representation><values>%s</values></localcolumn>`+"\n",
		lcID, escape(ch.Name), refs(smID), extra.String(), repr, refs(valuesID))

	if ch.Strings != nil {
		b.stringSequence(r, valuesID, ch)
		return
	}
	b.numericSequence(r, valuesID, ch)
}

func (b *Builder) stringSequence(r *rendered, id string, ch Channel) {
	if ch.Inline {
		fmt.Fprintf(&r.data, `<string_sequence id="%s"><values>`, id)
		for _, s := range ch.Strings {
			fmt.Fprintf(&r.data, "<s>%s</s>", escape(s))
		}
		r.data.WriteString("</values></string_sequence>\n")

		return
	}

	var payload []byte
	for _, s := range ch.Strings {
		payload = append(payload, s...)
		payload = append(payload, 0)
	}
	blk := r.addBlock(format.ValueTypeString, payload, len(payload))
	fmt.Fprintf(&r.data, `<string_sequence id="%s"><values external="%s"/></string_sequence>`+"\n", id, blk)
}

func (b *Builder) numericSequence(r *rendered, id string, ch Channel) {
	vt := ch.ValueType
	if vt == format.ValueTypeUnknown {
		vt = format.ValueTypeFloat64
	}
	kind := SequenceKind(vt)

	if ch.Inline {
		fields := make([]string, len(ch.Values))
		for i, v := range ch.Values {
			fields[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		fmt.Fprintf(&r.data, `<%s id="%s"><values><A>%s</A></values></%s>`+"\n",
			kind, id, strings.Join(fields, " "), kind)

		return
	}

	payload := Encode(b.engine, vt, ch.Values)
	blk := r.addBlock(vt, payload, len(ch.Values))
	fmt.Fprintf(&r.data, `<%s id="%s"><values external="%s"/></%s>`+"\n", kind, id, blk, kind)
}

// SequenceKind returns the sequence element name NI uses for vt.
func SequenceKind(vt format.ValueType) string {
	switch vt {
	case format.ValueTypeInt8:
		return "byte_sequence"
	case format.ValueTypeUInt8:
		return "byte_sequence"
	case format.ValueTypeInt16:
		return "short_sequence"
	case format.ValueTypeUInt16:
		return "unsigned_short_sequence"
	case format.ValueTypeInt32:
		return "long_sequence"
	case format.ValueTypeUInt32:
		return "unsigned_long_sequence"
	case format.ValueTypeInt64, format.ValueTypeUInt64:
		return "long_long_sequence"
	case format.ValueTypeFloat32:
		return "float_sequence"
	case format.ValueTypeString:
		return "string_sequence"
	default:
		return "double_sequence"
	}
}

// Encode lays values out as vt elements in the engine's byte order.
func Encode(engine endian.EndianEngine, vt format.ValueType, values []float64) []byte {
	out := make([]byte, 0, len(values)*vt.Size())
	for _, v := range values {
		switch vt {
		case format.ValueTypeInt8:
			out = append(out, byte(int8(v)))
		case format.ValueTypeUInt8:
			out = append(out, byte(v))
		case format.ValueTypeInt16:
			out = engine.AppendUint16(out, uint16(int16(v)))
		case format.ValueTypeUInt16:
			out = engine.AppendUint16(out, uint16(v))
		case format.ValueTypeInt32:
			out = engine.AppendUint32(out, uint32(int32(v)))
		case format.ValueTypeUInt32:
			out = engine.AppendUint32(out, uint32(v))
		case format.ValueTypeInt64:
			out = engine.AppendUint64(out, uint64(int64(v)))
		case format.ValueTypeUInt64:
			out = engine.AppendUint64(out, uint64(v))
		case format.ValueTypeFloat32:
			out = engine.AppendUint32(out, math.Float32bits(float32(v)))
		default:
			out = engine.AppendUint64(out, math.Float64bits(v))
		}
	}

	return out
}

// Write stores the document at tdmPath and the TDX payload next to it under
// the builder's url.
func (b *Builder) Write(filesystem billy.Filesystem, tdmPath string, wrap Wrap) error {
	doc, tdx := b.Build()

	wrapped, err := WrapDocument(doc, wrap)
	if err != nil {
		return err
	}

	if err := util.WriteFile(filesystem, tdmPath, wrapped, 0o644); err != nil {
		return err
	}

	return util.WriteFile(filesystem, filepath.Join(filepath.Dir(tdmPath), b.url), tdx, 0o644)
}

// WrapDocument wraps a rendered document the way Write does.
func WrapDocument(doc []byte, wrap Wrap) ([]byte, error) {
	var ct format.CompressionType
	switch wrap {
	case WrapZip:
		return zipEntries(map[string][]byte{"document.tdm": doc}, "document.tdm")
	case WrapZstd:
		ct = format.CompressionZstd
	case WrapS2:
		ct = format.CompressionS2Stream
	case WrapLZ4:
		ct = format.CompressionLZ4Frame
	case WrapS2Block:
		ct = format.CompressionS2
	case WrapLZ4Block:
		ct = format.CompressionLZ4
	default:
		return doc, nil
	}

	codec, err := compress.CreateCodec(ct, "document")
	if err != nil {
		return nil, err
	}

	return codec.Compress(doc)
}

// EmptyZip returns a valid zip archive without entries.
func EmptyZip() []byte {
	out, _ := zipEntries(nil)
	return out
}

func zipEntries(entries map[string][]byte, order ...string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(entries[name]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func refs(ids ...string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = `id("` + id + `")`
	}

	return strings.Join(parts, " ")
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))

	return buf.String()
}
