package tdx

import (
	"bytes"
	"math"
	"unsafe"

	"github.com/arloliu/tdm/endian"
	"github.com/arloliu/tdm/format"
)

// View is a typed, read-only window over one binary block.
type View struct {
	raw    []byte
	vt     format.ValueType
	engine endian.EndianEngine
	n      int
	size   int
}

func newView(raw []byte, vt format.ValueType, engine endian.EndianEngine, n int) View {
	return View{raw: raw, vt: vt, engine: engine, n: n, size: vt.Size()}
}

// ViewOf wraps an in-memory block. The element count is derived from len(raw);
// trailing bytes that do not fill a whole element are ignored.
func ViewOf(raw []byte, vt format.ValueType, engine endian.EndianEngine) View {
	n := len(raw)
	if size := vt.Size(); size > 0 {
		n /= size
	} else if !vt.IsText() {
		n = 0
	}

	return newView(raw, vt, engine, n)
}

// Len returns the declared block length: elements, or bytes for text blocks.
func (v View) Len() int {
	return v.n
}

// ValueType returns the element type of the block.
func (v View) ValueType() format.ValueType {
	return v.vt
}

// Bytes returns the raw block bytes. The slice aliases the mapping.
func (v View) Bytes() []byte {
	return v.raw
}

// Float64 converts element i to float64. It panics when i is out of range,
// like a slice index.
func (v View) Float64(i int) float64 {
	b := v.raw[i*v.size : (i+1)*v.size]

	switch v.vt {
	case format.ValueTypeInt8:
		return float64(int8(b[0]))
	case format.ValueTypeUInt8:
		return float64(b[0])
	case format.ValueTypeInt16:
		return float64(int16(v.engine.Uint16(b)))
	case format.ValueTypeUInt16:
		return float64(v.engine.Uint16(b))
	case format.ValueTypeInt32:
		return float64(int32(v.engine.Uint32(b)))
	case format.ValueTypeUInt32:
		return float64(v.engine.Uint32(b))
	case format.ValueTypeInt64:
		return float64(int64(v.engine.Uint64(b)))
	case format.ValueTypeUInt64:
		return float64(v.engine.Uint64(b))
	case format.ValueTypeFloat32:
		return float64(math.Float32frombits(v.engine.Uint32(b)))
	case format.ValueTypeFloat64:
		return math.Float64frombits(v.engine.Uint64(b))
	default:
		return math.NaN()
	}
}

// Int64 returns element i as a signed integer. Float elements are truncated
// toward zero and uint64 elements above math.MaxInt64 wrap.
func (v View) Int64(i int) int64 {
	b := v.raw[i*v.size : (i+1)*v.size]

	switch v.vt {
	case format.ValueTypeInt8:
		return int64(int8(b[0]))
	case format.ValueTypeUInt8:
		return int64(b[0])
	case format.ValueTypeInt16:
		return int64(int16(v.engine.Uint16(b)))
	case format.ValueTypeUInt16:
		return int64(v.engine.Uint16(b))
	case format.ValueTypeInt32:
		return int64(int32(v.engine.Uint32(b)))
	case format.ValueTypeUInt32:
		return int64(v.engine.Uint32(b))
	case format.ValueTypeInt64, format.ValueTypeUInt64:
		return int64(v.engine.Uint64(b)) //nolint: gosec
	default:
		return int64(v.Float64(i))
	}
}

// NativeFloat64s reinterprets an eFloat64Usi block as []float64 without
// copying. It succeeds only when the block is in native byte order and 8-byte
// aligned; the slice aliases the mapping and must not be modified.
func (v View) NativeFloat64s() ([]float64, bool) {
	if v.vt != format.ValueTypeFloat64 || v.n == 0 || !endian.CompareNativeEndian(v.engine) {
		return nil, false
	}

	ptr := unsafe.Pointer(unsafe.SliceData(v.raw))
	if uintptr(ptr)%unsafe.Alignof(float64(0)) != 0 {
		return nil, false
	}

	return unsafe.Slice((*float64)(ptr), v.n), true
}

// AppendFloat64s appends every element converted to float64 to dst.
// Text blocks append nothing.
func (v View) AppendFloat64s(dst []float64) []float64 {
	if v.vt.IsText() || v.size == 0 {
		return dst
	}
	if native, ok := v.NativeFloat64s(); ok {
		return append(dst, native...)
	}

	dst = append(dst, make([]float64, v.n)...)
	out := dst[len(dst)-v.n:]
	for i := range out {
		out[i] = v.Float64(i)
	}

	return dst
}

// Last returns the final element and false when the block is empty or text.
func (v View) Last() (float64, bool) {
	if v.n == 0 || v.vt.IsText() {
		return 0, false
	}

	return v.Float64(v.n - 1), true
}

// Strings splits an eStringUsi block into its NUL-terminated values. A missing
// terminator after the last value is tolerated.
func (v View) Strings() []string {
	if !v.vt.IsText() {
		return nil
	}

	raw := bytes.TrimSuffix(v.raw, []byte{0})
	if len(raw) == 0 {
		if len(v.raw) == 0 {
			return []string{}
		}

		return []string{""}
	}

	parts := bytes.Split(raw, []byte{0})
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = string(p)
	}

	return out
}
