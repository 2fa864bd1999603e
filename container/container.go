// Package container reads the TDM document out of whatever wraps it.
//
// A TDM document arrives as bare XML, as the first entry of a zip archive, or
// compressed as a whole with zstd, s2 or lz4. Load detects the wrapper, unwraps
// it and parses the XML under the requested text encoding.
package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/klauspost/compress/zip"

	"github.com/arloliu/tdm/compress"
	"github.com/arloliu/tdm/errs"
	"github.com/arloliu/tdm/format"
	"github.com/arloliu/tdm/internal/pool"
	"github.com/arloliu/tdm/xmltree"
)

// Kind identifies the wrapper of a TDM document.
type Kind uint8

const (
	KindXML Kind = iota + 1
	KindZip
	KindZstd
	KindS2
	KindLZ4
)

var (
	// local file header, empty archive (end of central directory) and spanned archive
	zipMagics = [][]byte{[]byte("PK\x03\x04"), []byte("PK\x05\x06"), []byte("PK\x07\x08")}

	zstdMagic     = []byte{0x28, 0xB5, 0x2F, 0xFD}
	s2StreamMagic = []byte("\xff\x06\x00\x00S2sTwO")
	lz4FrameMagic = []byte{0x04, 0x22, 0x4D, 0x18}
)

func (k Kind) String() string {
	switch k {
	case KindXML:
		return "xml"
	case KindZip:
		return "zip"
	case KindZstd:
		return "zstd"
	case KindS2:
		return "s2"
	case KindLZ4:
		return "lz4"
	default:
		return "Unknown"
	}
}

// Detect classifies a document from its leading bytes, falling back to the
// path suffix for the s2 and lz4 block formats that carry no magic number.
func Detect(header []byte, path string) Kind {
	kind, _ := classify(header, path)
	return kind
}

func classify(header []byte, path string) (Kind, format.CompressionType) {
	for _, magic := range zipMagics {
		if bytes.HasPrefix(header, magic) {
			return KindZip, format.CompressionNone
		}
	}

	switch {
	case bytes.HasPrefix(header, zstdMagic):
		return KindZstd, format.CompressionZstd
	case bytes.HasPrefix(header, s2StreamMagic):
		return KindS2, format.CompressionS2Stream
	case bytes.HasPrefix(header, lz4FrameMagic):
		return KindLZ4, format.CompressionLZ4Frame
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".s2":
		return KindS2, format.CompressionS2
	case ".lz4":
		return KindLZ4, format.CompressionLZ4
	default:
		return KindXML, format.CompressionNone
	}
}

// Document is a parsed TDM document together with the wrapper it came in.
type Document struct {
	Root        *xmltree.Element
	Kind        Kind
	Compression format.CompressionType // whole-document codec, CompressionNone for xml and zip
	Entry       string                 // zip entry name, "" for other kinds
}

// Load reads, unwraps and parses the TDM document at path.
//
// Parameters:
//   - filesystem: Filesystem holding the document
//   - path: Document path
//   - encoding: Text encoding name (WHATWG labels such as "utf-8", "latin1",
//     "windows-1252"); "" means UTF-8 with the XML prolog honoured
//
// Returns:
//   - *Document: Parsed document
//   - error: errs.ErrFileNotFound, errs.ErrEmptyArchive, errs.ErrUnsupportedEncoding,
//     errs.ErrMalformedDocument, or a read or decompression error
func Load(filesystem billy.Filesystem, path, encoding string) (*Document, error) {
	input, charsetReader, err := decoderFor(encoding)
	if err != nil {
		return nil, err
	}

	buf := pool.GetDocumentBuffer()
	defer pool.PutDocumentBuffer(buf)

	if err := readFile(filesystem, path, buf); err != nil {
		return nil, err
	}

	doc := &Document{}
	doc.Kind, doc.Compression = classify(buf.Bytes(), path)
	data, err := unwrap(doc, buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("tdm %q: %w", path, err)
	}

	// encoding/xml flattens charset errors into text; keep the sentinel
	var charsetErr error
	root, err := xmltree.Parse(input(bytes.NewReader(data)), func(charset string, in io.Reader) (io.Reader, error) {
		r, err := charsetReader(charset, in)
		charsetErr = err

		return r, err
	})
	if charsetErr != nil {
		return nil, fmt.Errorf("tdm %q: %w", path, charsetErr)
	}
	if err != nil {
		return nil, fmt.Errorf("tdm %q: %w", path, err)
	}
	doc.Root = root

	return doc, nil
}

func readFile(filesystem billy.Filesystem, path string, buf *pool.ByteBuffer) error {
	f, err := filesystem.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("tdm %q: %w", path, errs.ErrFileNotFound)
		}

		return fmt.Errorf("open tdm %q: %w", path, err)
	}
	defer f.Close()

	if _, err := buf.ReadFrom(f); err != nil {
		return fmt.Errorf("read tdm %q: %w", path, err)
	}

	return nil
}

func unwrap(doc *Document, data []byte) ([]byte, error) {
	switch {
	case doc.Kind == KindZip:
		return firstEntry(doc, data)
	case doc.Compression != format.CompressionNone:
		return decompress(doc.Compression, data)
	default:
		return data, nil
	}
}

func firstEntry(doc *Document, data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}
	if len(zr.File) == 0 {
		return nil, errs.ErrEmptyArchive
	}

	entry := zr.File[0]
	doc.Entry = entry.Name

	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("open zip entry %q: %w", entry.Name, err)
	}
	defer rc.Close()

	out, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read zip entry %q: %w", entry.Name, err)
	}

	return out, nil
}

func decompress(ct format.CompressionType, data []byte) ([]byte, error) {
	codec, err := compress.GetCodec(ct)
	if err != nil {
		return nil, err
	}

	out, err := codec.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("%s document: %w", ct, err)
	}

	return out, nil
}

// ResolveTDXPath returns explicit when set, otherwise url resolved against the
// directory of tdmPath.
//
// An empty url without an explicit path is errs.ErrMalformedHeader.
func ResolveTDXPath(tdmPath, url, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if url == "" {
		return "", fmt.Errorf("file header has no url attribute: %w", errs.ErrMalformedHeader)
	}

	return filepath.Join(filepath.Dir(tdmPath), url), nil
}
