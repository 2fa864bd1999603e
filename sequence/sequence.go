// Package sequence turns a local column into channel values.
//
// A local column stores its samples in one of three representations:
//
//   - explicit: the value sequence holds the samples
//   - implicit_linear: sample i is i times the last stored value, over the row
//     count of the column's submatrix
//   - raw_linear: sample i is slope*code[i] + offset, with offset and slope
//     taken from the generation parameters
//
// Explicit and raw_linear columns are then masked: every sample whose flag is
// zero becomes NaN and is recorded in Column.Missing. Without a flags sequence
// a global flag of zero masks every row.
package sequence

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring"

	"github.com/arloliu/tdm/errs"
	"github.com/arloliu/tdm/format"
	"github.com/arloliu/tdm/schema"
	"github.com/arloliu/tdm/tdx"
)

// Source supplies the schema lookups and block decoding Resolve needs.
type Source interface {
	RowCount(lc *schema.LocalColumn) (int, error)
	Sequence(id string) (*schema.Sequence, error)
	Block(id string) (schema.BlockRef, error)
	View(block schema.BlockRef) (tdx.View, error)
}

// Column is the resolved content of a local column. Numeric columns fill
// Values, text columns fill Text.
type Column struct {
	Representation format.Representation
	Values         []float64
	Text           []string
	Missing        *roaring.Bitmap
	Rows           int
}

// IsText reports whether the column holds text values.
func (c *Column) IsText() bool {
	return c.Text != nil
}

// MissingCount returns the number of masked samples.
func (c *Column) MissingCount() int {
	return int(c.Missing.GetCardinality())
}

// Resolve produces the values of lc.
//
// Parameters:
//   - src: Schema and block access for the document lc belongs to
//   - lc: Local column to resolve
//
// Returns:
//   - *Column: Freshly allocated values; never aliases the TDX mapping
//   - error: errs.ErrUnsupportedRepresentation, errs.ErrInvalidGenerationParameters,
//     errs.ErrReferenceNotFound, or any block decoding error
func Resolve(src Source, lc *schema.LocalColumn) (*Column, error) {
	seq, err := src.Sequence(lc.ValuesID)
	if err != nil {
		return nil, fmt.Errorf("local column %q values: %w", lc.ID, err)
	}

	col := &Column{
		Representation: lc.Representation,
		Missing:        roaring.New(),
	}

	if seq.Text {
		if lc.Representation != format.RepresentationExplicit {
			return nil, fmt.Errorf("local column %q: %s text sequence: %w",
				lc.ID, lc.Representation, errs.ErrUnsupportedRepresentation)
		}
		if col.Text, err = texts(src, seq); err != nil {
			return nil, err
		}
		col.Rows = len(col.Text)

		return col, nil
	}

	switch lc.Representation {
	case format.RepresentationExplicit:
		if col.Values, err = numbers(src, seq); err != nil {
			return nil, err
		}

	case format.RepresentationImplicitLinear:
		if col.Values, err = implicitLinear(src, lc, seq); err != nil {
			return nil, err
		}
		col.Rows = len(col.Values)

		return col, nil

	case format.RepresentationRawLinear:
		offset, slope, err := lc.Linear()
		if err != nil {
			return nil, err
		}
		if col.Values, err = numbers(src, seq); err != nil {
			return nil, err
		}
		for i, c := range col.Values {
			col.Values[i] = slope*c + offset
		}

	default:
		return nil, fmt.Errorf("local column %q: %s: %w", lc.ID, lc.Representation, errs.ErrUnsupportedRepresentation)
	}

	col.Rows = len(col.Values)
	if err := mask(src, lc, col); err != nil {
		return nil, err
	}

	return col, nil
}

func implicitLinear(src Source, lc *schema.LocalColumn, seq *schema.Sequence) ([]float64, error) {
	rows, err := src.RowCount(lc)
	if err != nil {
		return nil, err
	}

	var (
		last float64
		ok   bool
	)
	if seq.External() {
		view, err := view(src, seq)
		if err != nil {
			return nil, err
		}
		last, ok = view.Last()
	} else if n := len(seq.Numbers); n > 0 {
		last, ok = seq.Numbers[n-1], true
	}
	if !ok && rows > 0 {
		return nil, fmt.Errorf("local column %q: implicit_linear sequence %q is empty: %w",
			lc.ID, seq.ID, errs.ErrMalformedDocument)
	}

	out := make([]float64, rows)
	for i := range out {
		out[i] = float64(i) * last
	}

	return out, nil
}

// mask applies the flags sequence, or the global flag when there is none.
// Masking never reaches past the submatrix row count.
func mask(src Source, lc *schema.LocalColumn, col *Column) error {
	limit := len(col.Values)
	if lc.SubmatrixID != "" {
		rows, err := src.RowCount(lc)
		if err != nil {
			return err
		}
		limit = min(limit, rows)
	}

	if lc.FlagsID != "" {
		seq, err := src.Sequence(lc.FlagsID)
		if err != nil {
			return fmt.Errorf("local column %q flags: %w", lc.ID, err)
		}
		if err := zeroFlags(src, seq, limit, col.Missing); err != nil {
			return err
		}
	} else if lc.HasGlobalFlag && lc.GlobalFlag == 0 {
		rows, err := src.RowCount(lc)
		if err != nil {
			return err
		}
		col.Missing.AddRange(0, uint64(min(rows, limit))) //nolint: gosec
	}

	it := col.Missing.Iterator()
	for it.HasNext() {
		col.Values[it.Next()] = math.NaN()
	}

	return nil
}

// zeroFlags adds the positions below limit whose flag is 0 to missing.
func zeroFlags(src Source, seq *schema.Sequence, limit int, missing *roaring.Bitmap) error {
	if !seq.External() {
		for i, f := range seq.Numbers[:min(limit, len(seq.Numbers))] {
			if f == 0 {
				missing.Add(uint32(i)) //nolint: gosec
			}
		}

		return nil
	}

	v, err := view(src, seq)
	if err != nil {
		return err
	}
	if v.ValueType().IsText() {
		return fmt.Errorf("flags sequence %q holds %s: %w", seq.ID, v.ValueType(), errs.ErrNotNumericChannel)
	}

	for i := range min(limit, v.Len()) {
		if v.Int64(i) == 0 {
			missing.Add(uint32(i)) //nolint: gosec
		}
	}

	return nil
}

func view(src Source, seq *schema.Sequence) (tdx.View, error) {
	block, err := src.Block(seq.BlockID)
	if err != nil {
		return tdx.View{}, fmt.Errorf("sequence %q: %w", seq.ID, err)
	}

	return src.View(block)
}

func numbers(src Source, seq *schema.Sequence) ([]float64, error) {
	if !seq.External() {
		out := make([]float64, len(seq.Numbers))
		copy(out, seq.Numbers)

		return out, nil
	}

	v, err := view(src, seq)
	if err != nil {
		return nil, err
	}
	if v.ValueType().IsText() {
		return nil, fmt.Errorf("sequence %q holds %s: %w", seq.ID, v.ValueType(), errs.ErrNotNumericChannel)
	}

	return v.AppendFloat64s(make([]float64, 0, v.Len())), nil
}

func texts(src Source, seq *schema.Sequence) ([]string, error) {
	if !seq.External() {
		out := make([]string, len(seq.Strings))
		copy(out, seq.Strings)

		return out, nil
	}

	v, err := view(src, seq)
	if err != nil {
		return nil, err
	}
	if !v.ValueType().IsText() {
		return nil, fmt.Errorf("sequence %q holds %s: %w", seq.ID, v.ValueType(), errs.ErrNotTextChannel)
	}

	return v.Strings(), nil
}
