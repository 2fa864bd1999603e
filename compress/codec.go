package compress

import (
	"fmt"

	"github.com/arloliu/tdm/format"
)

// Compressor compresses a whole payload in one call.
//
// The container package never compresses; compressors exist so that fixture
// writers and tools can produce the same wrappers the reader unwraps.
type Compressor interface {
	// Compress compresses data and returns a newly allocated result.
	// The input slice is not modified.
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a payload produced by the matching Compressor.
//
// Implementations must be safe for concurrent use.
type Decompressor interface {
	// Decompress decompresses data and returns the original payload.
	//
	// Returns an error if data is corrupted or was produced by another algorithm.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec creates a Codec for the specified compression type.
//
// Parameters:
//   - compressionType: Type of compression (None, Zstd, S2, or LZ4)
//   - target: Description of target usage (for error messages)
//
// Returns:
//   - Codec: Codec instance for the specified type
//   - error: Invalid compression type error
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	case format.CompressionS2Stream:
		return NewS2StreamCompressor(), nil
	case format.CompressionLZ4Frame:
		return NewLZ4FrameCompressor(), nil
	default:
		return nil, fmt.Errorf("invalid %s compression: %s", target, compressionType)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),

	format.CompressionS2Stream: NewS2StreamCompressor(),
	format.CompressionLZ4Frame: NewLZ4FrameCompressor(),
}

// GetCodec retrieves a built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
