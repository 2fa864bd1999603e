package compress

import (
	"errors"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// maxDocumentSize caps the decompressed size of a wrapped TDM document.
const maxDocumentSize = 512 * 1024 * 1024

var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4Compressor handles TDM documents stored in the LZ4 block format.
//
// The block format carries neither a magic number nor the decompressed size,
// so LZ4 documents are selected by file suffix and decompressed with an
// adaptively grown buffer.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates a new LZ4 compressor.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses the input data as a single LZ4 block.
//
// Returns nil for empty input.
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(data)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, err
	}

	return dst[:n], nil
}

// Decompress decompresses a single LZ4 block.
//
// The output buffer starts at 4x the input size and doubles on
// lz4.ErrInvalidSourceShortBuffer until the document size limit is reached.
//
// Returns:
//   - []byte: Decompressed data (nil if input is empty)
//   - error: lz4.ErrInvalidSourceShortBuffer past the size limit, or other decompression errors
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	bufSize := len(data) * 4
	for bufSize <= maxDocumentSize {
		buf := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(data, buf)
		if err != nil {
			if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) && bufSize < maxDocumentSize {
				bufSize = min(bufSize*2, maxDocumentSize)
				continue
			}

			return nil, err
		}

		return buf[:n], nil
	}

	return nil, lz4.ErrInvalidSourceShortBuffer
}
