package container

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/arloliu/tdm/errs"
	"github.com/arloliu/tdm/xmltree"
)

// DefaultEncoding is the text encoding assumed when the caller names none.
const DefaultEncoding = "utf-8"

// lookupEncoding resolves a WHATWG encoding label.
func lookupEncoding(name string) (encoding.Encoding, string, error) {
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, "", fmt.Errorf("encoding %q: %w", name, errs.ErrUnsupportedEncoding)
	}

	canonical, err := htmlindex.Name(enc)
	if err != nil {
		return nil, "", fmt.Errorf("encoding %q: %w", name, errs.ErrUnsupportedEncoding)
	}

	return enc, canonical, nil
}

// ValidateEncoding reports whether name is a known encoding label.
func ValidateEncoding(name string) error {
	if name == "" {
		return nil
	}
	_, _, err := lookupEncoding(name)

	return err
}

// prologCharsetReader honours the encoding declared by the XML prolog.
func prologCharsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, _, err := lookupEncoding(charset)
	if err != nil {
		return nil, err
	}

	return enc.NewDecoder().Reader(input), nil
}

// transcodedCharsetReader accepts any prolog declaration because the input has
// already been converted to UTF-8.
func transcodedCharsetReader(_ string, input io.Reader) (io.Reader, error) {
	return input, nil
}

// decoderFor returns the input transform and prolog handler for encoding name.
//
// UTF-8, the default, passes bytes through and lets the prolog pick a
// different charset. Any other caller-chosen encoding wins over the prolog.
func decoderFor(name string) (func(io.Reader) io.Reader, xmltree.CharsetReader, error) {
	if name == "" {
		name = DefaultEncoding
	}

	enc, canonical, err := lookupEncoding(name)
	if err != nil {
		return nil, nil, err
	}

	if canonical == DefaultEncoding {
		return func(r io.Reader) io.Reader { return r }, prologCharsetReader, nil
	}

	return func(r io.Reader) io.Reader { return enc.NewDecoder().Reader(r) }, transcodedCharsetReader, nil
}
