package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/tdm/errs"
	"github.com/arloliu/tdm/format"
	"github.com/arloliu/tdm/usi"
)

// LocalColumn is the resolved localcolumn element of a channel.
type LocalColumn struct {
	ID             string
	Representation format.Representation
	Generation     string // raw generation_parameters text
	ValuesID       string
	FlagsID        string // "" when the column has no flags sequence
	GlobalFlag     int64
	HasGlobalFlag  bool
	SubmatrixID    string
}

// Linear parses the raw_linear generation parameters, offset first.
func (lc *LocalColumn) Linear() (offset, slope float64, err error) {
	fields := strings.Fields(lc.Generation)
	if len(fields) < 2 {
		return 0, 0, fmt.Errorf("local column %q: generation_parameters %q: %w",
			lc.ID, lc.Generation, errs.ErrInvalidGenerationParameters)
	}

	if offset, err = strconv.ParseFloat(fields[0], 64); err != nil {
		return 0, 0, fmt.Errorf("local column %q: offset %q: %w", lc.ID, fields[0], errs.ErrInvalidGenerationParameters)
	}
	if slope, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return 0, 0, fmt.Errorf("local column %q: slope %q: %w", lc.ID, fields[1], errs.ErrInvalidGenerationParameters)
	}

	return offset, slope, nil
}

// Sequence is a resolved *_sequence element. Exactly one of BlockID, Numbers
// and Strings carries the payload.
type Sequence struct {
	ID      string
	Kind    string // element name, e.g. "double_sequence"
	Text    bool   // string_sequence
	BlockID string
	Numbers []float64
	Strings []string
}

// External reports whether the sequence references a binary block.
func (s *Sequence) External() bool {
	return s.BlockID != ""
}

// BlockRef is a binary block descriptor of the file header.
type BlockRef struct {
	ID         string
	ByteOffset int64
	Length     int64
	ValueType  format.ValueType
}

// LocalColumn resolves the first local column referenced by the channel.
func (doc *Document) LocalColumn(ch *Channel) (*LocalColumn, error) {
	e, err := doc.index.ResolveFirst(ch.elem.ChildText("local_columns"), usi.KindLocalColumn)
	if err != nil {
		return nil, fmt.Errorf("channel %q local_columns: %w", ch.ID, err)
	}

	repr, err := format.ParseRepresentation(e.ChildText("sequence_representation"))
	if err != nil {
		return nil, fmt.Errorf("local column %q: %w", e.ID(), err)
	}

	valuesID, ok := usi.First(e.ChildText("values"))
	if !ok {
		return nil, fmt.Errorf("local column %q has no values reference: %w", e.ID(), errs.ErrReferenceNotFound)
	}

	lc := &LocalColumn{
		ID:             e.ID(),
		Representation: repr,
		Generation:     e.ChildText("generation_parameters"),
		ValuesID:       valuesID,
	}
	lc.FlagsID, _ = usi.First(e.ChildText("flags"))
	lc.SubmatrixID, _ = usi.First(e.ChildText("submatrix"))

	if text := e.ChildText("global_flag"); text != "" {
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("local column %q global_flag %q: %w", e.ID(), text, errs.ErrMalformedDocument)
		}
		lc.GlobalFlag = v
		lc.HasGlobalFlag = true
	}

	return lc, nil
}

// RowCount returns number_of_rows of the submatrix the local column belongs to.
func (doc *Document) RowCount(lc *LocalColumn) (int, error) {
	if lc.SubmatrixID == "" {
		return 0, fmt.Errorf("local column %q has no submatrix reference: %w", lc.ID, errs.ErrReferenceNotFound)
	}

	e, err := doc.index.Resolve(lc.SubmatrixID, usi.KindSubmatrix)
	if err != nil {
		return 0, fmt.Errorf("local column %q: %w", lc.ID, err)
	}

	text := e.ChildText("number_of_rows")
	n, err := strconv.Atoi(text)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("submatrix %q number_of_rows %q: %w", lc.SubmatrixID, text, errs.ErrMalformedDocument)
	}

	return n, nil
}

// Sequence resolves a value or flags sequence by identifier.
func (doc *Document) Sequence(id string) (*Sequence, error) {
	e, err := doc.index.Resolve(id, usi.KindSequence)
	if err != nil {
		return nil, err
	}

	seq := &Sequence{
		ID:   id,
		Kind: e.Name,
		Text: e.Name == "string_sequence",
	}

	values := e.Child("values")
	if values == nil {
		return seq, nil
	}

	if ext := values.Attr("external"); ext != "" {
		seq.BlockID = ext
		return seq, nil
	}

	if seq.Text {
		seq.Strings = make([]string, 0, len(values.Children))
		for _, c := range values.Children {
			seq.Strings = append(seq.Strings, c.Text)
		}

		return seq, nil
	}

	fields := strings.Fields(values.Text)
	for _, c := range values.Children {
		fields = append(fields, strings.Fields(c.Text)...)
	}

	seq.Numbers = make([]float64, len(fields))
	for i, f := range fields {
		if seq.Numbers[i], err = strconv.ParseFloat(f, 64); err != nil {
			return nil, fmt.Errorf("sequence %q inline value %q: %w", id, f, errs.ErrMalformedDocument)
		}
	}

	return seq, nil
}

// Block resolves a binary block descriptor by identifier.
func (doc *Document) Block(id string) (BlockRef, error) {
	e, err := doc.index.Resolve(id, usi.KindBlock)
	if err != nil {
		return BlockRef{}, err
	}

	vt, err := format.ParseValueType(e.Attr("valueType"))
	if err != nil {
		return BlockRef{}, fmt.Errorf("block %q: %w", id, err)
	}

	offset, err := strconv.ParseInt(e.Attr("byteOffset"), 10, 64)
	if err != nil || offset < 0 {
		return BlockRef{}, fmt.Errorf("block %q byteOffset %q: %w", id, e.Attr("byteOffset"), errs.ErrMalformedDocument)
	}

	length, err := strconv.ParseInt(e.Attr("length"), 10, 64)
	if err != nil || length < 0 {
		return BlockRef{}, fmt.Errorf("block %q length %q: %w", id, e.Attr("length"), errs.ErrMalformedDocument)
	}

	return BlockRef{ID: id, ByteOffset: offset, Length: length, ValueType: vt}, nil
}
