// Package endian provides byte order utilities for decoding TDX sample data.
//
// TDM documents declare the byte order of every numeric block in the TDX file once,
// through the byteOrder attribute of the file header. ParseByteOrder turns that
// attribute into an EndianEngine that the block decoder applies uniformly:
//
//	engine, err := endian.ParseByteOrder("littleEndian")
//	if err != nil {
//	    return err
//	}
//	v := engine.Uint32(raw[0:4])
//
// The AppendByteOrder half of the engine is used by fixture writers to lay out
// TDX payloads in either byte order.
//
// # Thread Safety
//
// All functions and methods in this package are safe for concurrent use.
// The returned EndianEngine instances are immutable and stateless.
package endian

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/arloliu/tdm/errs"
)

// Byte order spellings used by the byteOrder attribute of a TDM file header.
const (
	LittleEndianName = "littleEndian"
	BigEndianName    = "bigEndian"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
//
// This interface is satisfied by binary.LittleEndian and binary.BigEndian from
// the standard library, making it fully compatible with existing Go code while
// providing access to both read/write and append operations.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// CheckEndianness uses a fixed integer value to determine the host's byte order.
func CheckEndianness() binary.ByteOrder {
	// 0x0100 is 256. For a little-endian system, the LSB (0x00) is first.
	// For a big-endian system, the MSB (0x01) is first.
	var i uint16 = 0x0100

	// Create a byte slice pointing to the memory address of 'i'.
	// We only need the first byte.
	b := (*[2]byte)(unsafe.Pointer(&i))

	// Check the first byte at the lowest memory address
	if b[0] == 0x01 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// IsNativeLittleEndian reports whether the host is little-endian.
func IsNativeLittleEndian() bool {
	return CheckEndianness() == binary.LittleEndian
}

// CompareNativeEndian reports whether engine matches the host byte order, in which
// case decoded values need no byte swapping.
func CompareNativeEndian(engine EndianEngine) bool {
	return engine == CheckEndianness()
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// ParseByteOrder maps the byteOrder attribute of a TDM file header to an engine.
//
// Parameters:
//   - attr: Attribute value, either "littleEndian" or "bigEndian"
//
// Returns:
//   - EndianEngine: Engine for the declared byte order
//   - error: ErrMalformedHeader for any other value, including an empty one
func ParseByteOrder(attr string) (EndianEngine, error) {
	switch attr {
	case LittleEndianName:
		return GetLittleEndianEngine(), nil
	case BigEndianName:
		return GetBigEndianEngine(), nil
	default:
		return nil, fmt.Errorf("byteOrder %q: %w", attr, errs.ErrMalformedHeader)
	}
}

// Name returns the TDM attribute spelling of engine's byte order.
func Name(engine EndianEngine) string {
	if engine == GetBigEndianEngine() {
		return BigEndianName
	}

	return LittleEndianName
}
