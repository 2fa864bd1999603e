package compress

// ZstdCompressor provides Zstandard compression for TDM documents.
//
// Zstandard frames carry a magic number, so zstd-wrapped documents are detected
// by content rather than by file name.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
