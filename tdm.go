// Package tdm reads National Instruments TDM/TDX measurement files.
//
// A TDM file is an XML document describing channel groups, channels and the
// binary blocks their samples live in; the samples themselves sit in a
// companion TDX file. Open parses the document once and maps the TDX file on
// first access, after which channels can be fetched by position or by name.
//
// # Basic Usage
//
//	f, err := tdm.Open("measurement.tdm")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	// first channel of the first group
//	values, err := f.Channel(schema.ByIndex(0), schema.ByIndex(0))
//
//	// second channel named "Voltage" in the group named "Run 1"
//	values, err = f.Channel(schema.ByName("Run 1"), schema.ByNameAt("Voltage", 1))
//
// Positions may be negative to count from the end. Failed queries return an
// error wrapping one of the errs sentinels and leave the file usable.
//
// # Containers
//
// The document may be bare XML in any text encoding (see WithEncoding), the
// first entry of a zip archive, or compressed as a whole with zstd, s2 or lz4.
// The TDX path defaults to the url of the document header, resolved against
// the directory of the TDM file; WithTDXPath overrides it.
//
// # Concurrency
//
// A File is safe for concurrent use. Decoded columns are cached for the life
// of the File; Close waits for queries in flight, then releases the mapping.
package tdm

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/arloliu/tdm/container"
	"github.com/arloliu/tdm/endian"
	"github.com/arloliu/tdm/errs"
	"github.com/arloliu/tdm/internal/options"
	"github.com/arloliu/tdm/schema"
	"github.com/arloliu/tdm/sequence"
	"github.com/arloliu/tdm/tdx"
)

// File is an open TDM/TDX pair.
type File struct {
	path      string
	tdxPath   string
	container container.Kind

	doc     *schema.Document
	mapping *tdx.Mapping
	src     sequence.Source
	logger  *slog.Logger

	// life is held shared while a query decodes from the mapping and
	// exclusively by Close, so the mapping is never released mid-read.
	life   sync.RWMutex
	mu     sync.Mutex
	cache  map[string]*sequence.Column
	closed atomic.Bool
}

// Open parses the TDM document at tdmPath and prepares its TDX file.
//
// Parameters:
//   - tdmPath: Path of the TDM document
//   - opts: Optional settings (WithTDXPath, WithEncoding, WithFilesystem, WithLogger, WithMmap)
//
// Returns:
//   - *File: Open file; call Close when done
//   - error: errs.ErrFileNotFound, errs.ErrEmptyArchive, errs.ErrMalformedHeader,
//     errs.ErrMalformedDocument, errs.ErrUnsupportedEncoding, errs.ErrReferenceNotFound
func Open(tdmPath string, opts ...OpenOption) (*File, error) {
	cfg := newOpenConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	tdmPath, err := cfg.resolvePaths(tdmPath)
	if err != nil {
		return nil, err
	}

	c, err := container.Load(cfg.fs, tdmPath, cfg.encoding)
	if err != nil {
		return nil, err
	}

	doc, err := schema.Load(c.Root)
	if err != nil {
		return nil, fmt.Errorf("tdm %q: %w", tdmPath, err)
	}

	tdxPath, err := container.ResolveTDXPath(tdmPath, doc.TDXURL(), cfg.tdxPath)
	if err != nil {
		return nil, fmt.Errorf("tdm %q: %w", tdmPath, err)
	}

	mapping, err := tdx.OpenMapping(cfg.fs, tdxPath, cfg.mmap)
	if err != nil {
		return nil, err
	}

	f := &File{
		path:      tdmPath,
		tdxPath:   tdxPath,
		container: c.Kind,
		doc:       doc,
		mapping:   mapping,
		src:       sequence.NewSource(doc, mapping),
		logger:    cfg.logger,
		cache:     make(map[string]*sequence.Column),
	}

	f.logger.Debug("opened tdm file",
		slog.String("path", tdmPath),
		slog.String("container", c.Kind.String()),
		slog.String("tdx", tdxPath),
		slog.Int64("tdx_size", mapping.Size()),
		slog.Bool("mmap", cfg.mmap),
		slog.Int("groups", doc.GroupCount()),
	)

	return f, nil
}

// Close releases the TDX mapping once in-flight queries have finished.
// Further queries fail with errs.ErrClosed. Calling Close more than once is a no-op.
func (f *File) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}

	f.life.Lock()
	defer f.life.Unlock()

	f.mu.Lock()
	f.cache = nil
	f.mu.Unlock()

	return f.mapping.Close()
}

func (f *File) check() error {
	if f.closed.Load() {
		return fmt.Errorf("tdm %q: %w", f.path, errs.ErrClosed)
	}

	return nil
}

// Path returns the path the document was opened from.
func (f *File) Path() string {
	return f.path
}

// TDXPath returns the resolved path of the TDX file.
func (f *File) TDXPath() string {
	return f.tdxPath
}

// Container returns the wrapper the document was stored in.
func (f *File) Container() container.Kind {
	return f.container
}

// Exporter returns the exporter named by the document, or "".
func (f *File) Exporter() string {
	return f.doc.Exporter()
}

// ByteOrder returns the byteOrder attribute of the document header.
func (f *File) ByteOrder() string {
	return endian.Name(f.doc.ByteOrder())
}

// Document exposes the schema navigator for lookups the File does not wrap.
func (f *File) Document() *schema.Document {
	return f.doc
}

// String summarizes the file.
func (f *File) String() string {
	return fmt.Sprintf("tdm.File{path: %q, tdx: %q, container: %s, groups: %d, channels: %d}",
		f.path, f.tdxPath, f.container, f.doc.GroupCount(), f.doc.TotalChannels())
}
