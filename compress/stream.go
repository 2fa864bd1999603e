package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/s2"
	"github.com/pierrec/lz4/v4"
)

var errDocumentTooLarge = errors.New("decompressed document exceeds size limit")

// S2StreamCompressor handles TDM documents written with the S2 stream format,
// as produced by the s2c tool or s2.Writer.
type S2StreamCompressor struct{}

var _ Codec = (*S2StreamCompressor)(nil)

// NewS2StreamCompressor creates a new S2 stream compressor.
func NewS2StreamCompressor() S2StreamCompressor {
	return S2StreamCompressor{}
}

// Compress writes data as a complete S2 stream.
func (c S2StreamCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	w := s2.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decompress reads a complete S2 stream.
func (c S2StreamCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return readLimited(s2.NewReader(bytes.NewReader(data)), "s2 stream")
}

// LZ4FrameCompressor handles TDM documents written with the LZ4 frame format,
// as produced by the lz4 command line tool.
type LZ4FrameCompressor struct{}

var _ Codec = (*LZ4FrameCompressor)(nil)

// NewLZ4FrameCompressor creates a new LZ4 frame compressor.
func NewLZ4FrameCompressor() LZ4FrameCompressor {
	return LZ4FrameCompressor{}
}

// Compress writes data as a single LZ4 frame.
func (c LZ4FrameCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decompress reads a complete LZ4 frame.
func (c LZ4FrameCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return readLimited(lz4.NewReader(bytes.NewReader(data)), "lz4 frame")
}

func readLimited(r io.Reader, what string) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("%s decompression failed: %w", what, err)
	}
	if len(out) > maxDocumentSize {
		return nil, fmt.Errorf("%s: %w", what, errDocumentTooLarge)
	}

	return out, nil
}
