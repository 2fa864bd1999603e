// Package format defines the enumerated tags found in TDM documents.
//
// ValueType covers the NI value-type tags carried by binary block descriptors,
// Representation covers the sequence representation of a local column, and
// CompressionType covers the wrappers a TDM document may arrive in.
package format

import (
	"fmt"

	"github.com/arloliu/tdm/errs"
)

type (
	ValueType       uint8
	Representation  uint8
	CompressionType uint8
)

const (
	ValueTypeUnknown ValueType = iota
	ValueTypeInt8              // eInt8Usi
	ValueTypeInt16             // eInt16Usi
	ValueTypeInt32             // eInt32Usi
	ValueTypeInt64             // eInt64Usi
	ValueTypeUInt8             // eUInt8Usi
	ValueTypeUInt16            // eUInt16Usi
	ValueTypeUInt32            // eUInt32Usi
	ValueTypeUInt64            // eUInt64Usi
	ValueTypeFloat32           // eFloat32Usi
	ValueTypeFloat64           // eFloat64Usi
	ValueTypeString            // eStringUsi
)

const (
	RepresentationUnknown        Representation = 0x0
	RepresentationExplicit       Representation = 0x1 // values are stored as-is
	RepresentationImplicitLinear Representation = 0x2 // values are index * increment
	RepresentationRawLinear      Representation = 0x3 // values are slope * raw + offset

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.

	CompressionS2Stream CompressionType = 0x5 // S2 framed stream, identified by its stream header
	CompressionLZ4Frame CompressionType = 0x6 // LZ4 frame format, identified by its frame magic
)

var valueTypeTags = map[string]ValueType{
	"eInt8Usi":    ValueTypeInt8,
	"eInt16Usi":   ValueTypeInt16,
	"eInt32Usi":   ValueTypeInt32,
	"eInt64Usi":   ValueTypeInt64,
	"eUInt8Usi":   ValueTypeUInt8,
	"eUInt16Usi":  ValueTypeUInt16,
	"eUInt32Usi":  ValueTypeUInt32,
	"eUInt64Usi":  ValueTypeUInt64,
	"eFloat32Usi": ValueTypeFloat32,
	"eFloat64Usi": ValueTypeFloat64,
	"eStringUsi":  ValueTypeString,
}

// ParseValueType converts an NI value-type tag into a ValueType.
//
// Returns errs.ErrUnknownValueType for tags outside the conversion table.
func ParseValueType(tag string) (ValueType, error) {
	if vt, ok := valueTypeTags[tag]; ok {
		return vt, nil
	}

	return ValueTypeUnknown, fmt.Errorf("valueType %q: %w", tag, errs.ErrUnknownValueType)
}

// Size returns the element size in bytes, or 0 for variable-width text and unknown types.
func (v ValueType) Size() int {
	switch v {
	case ValueTypeInt8, ValueTypeUInt8:
		return 1
	case ValueTypeInt16, ValueTypeUInt16:
		return 2
	case ValueTypeInt32, ValueTypeUInt32, ValueTypeFloat32:
		return 4
	case ValueTypeInt64, ValueTypeUInt64, ValueTypeFloat64:
		return 8
	default:
		return 0
	}
}

// IsSigned reports whether v is a signed integer type.
func (v ValueType) IsSigned() bool {
	return v >= ValueTypeInt8 && v <= ValueTypeInt64
}

// IsUnsigned reports whether v is an unsigned integer type.
func (v ValueType) IsUnsigned() bool {
	return v >= ValueTypeUInt8 && v <= ValueTypeUInt64
}

// IsFloat reports whether v is an IEEE-754 type.
func (v ValueType) IsFloat() bool {
	return v == ValueTypeFloat32 || v == ValueTypeFloat64
}

// IsText reports whether v is the variable-width text type.
func (v ValueType) IsText() bool {
	return v == ValueTypeString
}

// String returns the NI tag of v.
func (v ValueType) String() string {
	for tag, vt := range valueTypeTags {
		if vt == v {
			return tag
		}
	}

	return "Unknown"
}

// ParseRepresentation converts the sequence_representation text of a local column.
//
// Returns errs.ErrUnsupportedRepresentation for any other tag, including an empty one.
func ParseRepresentation(tag string) (Representation, error) {
	switch tag {
	case "explicit":
		return RepresentationExplicit, nil
	case "implicit_linear":
		return RepresentationImplicitLinear, nil
	case "raw_linear":
		return RepresentationRawLinear, nil
	default:
		return RepresentationUnknown, fmt.Errorf("sequence_representation %q: %w", tag, errs.ErrUnsupportedRepresentation)
	}
}

func (r Representation) String() string {
	switch r {
	case RepresentationExplicit:
		return "explicit"
	case RepresentationImplicitLinear:
		return "implicit_linear"
	case RepresentationRawLinear:
		return "raw_linear"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	case CompressionS2Stream:
		return "S2Stream"
	case CompressionLZ4Frame:
		return "LZ4Frame"
	default:
		return "Unknown"
	}
}
