// Package errs defines the sentinel errors returned by the tdm packages.
//
// Every error surfaced by a query wraps exactly one of these sentinels, so callers
// can branch with errors.Is regardless of the context added by the call site:
//
//	data, err := file.Channel(schema.ByIndex(0), schema.ByName("Voltage"))
//	if errors.Is(err, errs.ErrNotFound) {
//	    // no channel with that name in group 0
//	}
//
// A failed query never invalidates the open file; the caller may retry with a
// different selector.
package errs

import "errors"

// File and container errors.
var (
	// ErrFileNotFound is returned when the TDM or TDX path does not exist.
	ErrFileNotFound = errors.New("file not found")
	// ErrEmptyArchive is returned when a zip-wrapped TDM document has no entries.
	ErrEmptyArchive = errors.New("empty archive")
	// ErrUnsupportedEncoding is returned when a text encoding name cannot be resolved.
	ErrUnsupportedEncoding = errors.New("unsupported text encoding")
	// ErrClosed is returned when a query is issued against a closed file.
	ErrClosed = errors.New("file already closed")
)

// Document structure errors.
var (
	// ErrMalformedHeader is returned for an unknown or missing byteOrder attribute,
	// or a missing file header element.
	ErrMalformedHeader = errors.New("malformed TDM header")
	// ErrMalformedDocument is returned when a required schema element is missing
	// or carries an unparsable value.
	ErrMalformedDocument = errors.New("malformed TDM document")
	// ErrReferenceNotFound is returned when an id("...") token does not resolve to an
	// element of the expected kind.
	ErrReferenceNotFound = errors.New("reference not found")
	// ErrDuplicateReference is returned when an identifier resolves to more than one
	// element of the expected kind.
	ErrDuplicateReference = errors.New("duplicate reference")
)

// Query errors.
var (
	// ErrOutOfRange is returned when a positional index lies outside [-count, count).
	ErrOutOfRange = errors.New("index out of range")
	// ErrNotFound is returned when a name lookup has zero matches.
	ErrNotFound = errors.New("name not found")
	// ErrAmbiguousOccurrence is returned when the requested occurrence exceeds the number
	// of matches for a name.
	ErrAmbiguousOccurrence = errors.New("occurrence exceeds name matches")
	// ErrTypeMismatch is returned when a selector or parameter is not one of the accepted forms.
	ErrTypeMismatch = errors.New("type mismatch")
)

// Decoding errors.
var (
	// ErrUnknownValueType is returned for an NI value-type tag absent from the conversion table.
	ErrUnknownValueType = errors.New("unknown value type")
	// ErrUnsupportedRepresentation is returned for a sequence representation other than
	// explicit, implicit_linear or raw_linear.
	ErrUnsupportedRepresentation = errors.New("unsupported sequence representation")
	// ErrInvalidGenerationParameters is returned when raw_linear generation parameters
	// do not hold an offset and a slope.
	ErrInvalidGenerationParameters = errors.New("invalid generation parameters")
	// ErrBlockOutOfBounds is returned when a binary block extends past the end of the TDX file.
	ErrBlockOutOfBounds = errors.New("binary block exceeds TDX file size")
	// ErrNotTextChannel is returned when text values are requested from a numeric channel.
	ErrNotTextChannel = errors.New("channel does not hold text values")
	// ErrNotNumericChannel is returned when numeric values are requested from a text channel.
	ErrNotNumericChannel = errors.New("channel does not hold numeric values")
)
