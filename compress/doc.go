// Package compress provides the codecs used to unwrap compressed TDM documents.
//
// A TDM document is usually plain XML or a zip archive. Archival pipelines also
// store the XML compressed with a general-purpose codec next to the TDX file,
// for example "run42.tdm.zst". The container package detects such wrappers and
// uses this package to restore the XML before parsing.
//
// # Supported Algorithms
//
//   - None: pass-through (format.CompressionNone)
//   - Zstd: Zstandard frames (format.CompressionZstd), detected by frame magic
//   - S2: S2 block format (format.CompressionS2), selected by the ".s2" suffix
//   - LZ4: LZ4 block format (format.CompressionLZ4), selected by the ".lz4" suffix
//   - S2Stream: framed S2 stream (format.CompressionS2Stream), detected by stream header
//   - LZ4Frame: LZ4 frame format (format.CompressionLZ4Frame), detected by frame magic
//
// The zstd codec is pure Go by default. Building with the gozstd tag on a cgo
// toolchain switches it to the libzstd binding:
//
//	go build -tags gozstd ./...
//
// # Usage
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	if err != nil {
//	    return err
//	}
//	xmlBytes, err := codec.Decompress(raw)
//
// # Thread Safety
//
// All codec implementations are stateless values and safe for concurrent use.
// Pooled zstd decoders are handed out per call.
package compress
