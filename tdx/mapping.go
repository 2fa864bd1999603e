// Package tdx decodes the binary sample blocks of a TDX file.
//
// A Mapping owns the open TDX file. On unix the file is memory mapped read-only
// on first use and every View is a window into that mapping, so no sample is
// copied until the caller converts it. Filesystems that do not expose a file
// descriptor, and callers that disable mmap, get views backed by a single
// ReadAt per block instead.
//
//	m, err := tdx.OpenMapping(osfs.New("/", osfs.WithBoundOS()), "run.tdx", true)
//	if err != nil {
//	    return err
//	}
//	defer m.Close()
//
//	view, err := m.View(block, engine)
//	values := view.AppendFloat64s(nil)
//
// Views over a mapping are valid until Close. Mapping methods are safe for
// concurrent use.
package tdx

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"

	"github.com/go-git/go-billy/v5"

	"github.com/arloliu/tdm/endian"
	"github.com/arloliu/tdm/errs"
	"github.com/arloliu/tdm/format"
	"github.com/arloliu/tdm/schema"
)

// Mapping is an open TDX file.
type Mapping struct {
	fs      billy.Filesystem
	path    string
	size    int64
	useMmap bool

	once   sync.Once
	openEr error

	mu     sync.RWMutex
	file   billy.File
	data   []byte // non-nil when mapped
	closed bool
}

// OpenMapping checks that path exists and prepares it for lazy mapping.
//
// Parameters:
//   - filesystem: Filesystem holding the TDX file
//   - path: TDX path within filesystem
//   - useMmap: Map the file when the platform and filesystem allow it
//
// Returns:
//   - *Mapping: Unmapped handle; the file is opened on the first View
//   - error: errs.ErrFileNotFound when path does not exist
func OpenMapping(filesystem billy.Filesystem, path string, useMmap bool) (*Mapping, error) {
	info, err := filesystem.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("tdx %q: %w", path, errs.ErrFileNotFound)
		}

		return nil, fmt.Errorf("stat tdx %q: %w", path, err)
	}

	return &Mapping{
		fs:      filesystem,
		path:    path,
		size:    info.Size(),
		useMmap: useMmap,
	}, nil
}

// Path returns the TDX path.
func (m *Mapping) Path() string {
	return m.path
}

// Size returns the TDX file size in bytes.
func (m *Mapping) Size() int64 {
	return m.size
}

// Mapped reports whether the file is currently memory mapped.
func (m *Mapping) Mapped() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.data != nil
}

func (m *Mapping) open() error {
	m.once.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		if m.closed {
			m.openEr = errs.ErrClosed
			return
		}

		f, err := m.fs.Open(m.path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				err = errs.ErrFileNotFound
			}
			m.openEr = fmt.Errorf("open tdx %q: %w", m.path, err)

			return
		}

		if m.useMmap {
			data, err := mapFile(f, m.size)
			if err != nil {
				_ = f.Close()
				m.openEr = fmt.Errorf("map tdx %q: %w", m.path, err)

				return
			}
			m.data = data
		}
		m.file = f
	})

	return m.openEr
}

// View returns a typed view over the block.
//
// Parameters:
//   - block: Block descriptor; Length counts elements, or bytes for eStringUsi
//   - engine: Byte order declared by the document header
//
// Returns:
//   - View: Read-only view with block.Length elements
//   - error: errs.ErrUnknownValueType, errs.ErrBlockOutOfBounds, errs.ErrClosed,
//     or the error of opening the file
func (m *Mapping) View(block schema.BlockRef, engine endian.EndianEngine) (View, error) {
	if block.ValueType == format.ValueTypeUnknown {
		return View{}, fmt.Errorf("block %q: %w", block.ID, errs.ErrUnknownValueType)
	}

	byteLen := block.Length
	if !block.ValueType.IsText() {
		byteLen *= int64(block.ValueType.Size())
	}
	if block.ByteOffset < 0 || byteLen < 0 || block.ByteOffset > m.size || byteLen > m.size-block.ByteOffset {
		return View{}, fmt.Errorf("block %q [%d, +%d) of %d bytes: %w",
			block.ID, block.ByteOffset, byteLen, m.size, errs.ErrBlockOutOfBounds)
	}

	if err := m.open(); err != nil {
		return View{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return View{}, fmt.Errorf("tdx %q: %w", m.path, errs.ErrClosed)
	}

	var raw []byte
	if m.data != nil {
		raw = m.data[block.ByteOffset : block.ByteOffset+byteLen : block.ByteOffset+byteLen]
	} else {
		raw = make([]byte, byteLen)
		if _, err := m.file.ReadAt(raw, block.ByteOffset); err != nil && !(errors.Is(err, io.EOF) && byteLen == 0) {
			return View{}, fmt.Errorf("read block %q: %w", block.ID, err)
		}
	}

	return newView(raw, block.ValueType, engine, int(block.Length)), nil
}

// Close unmaps and closes the file. Calling Close more than once is a no-op.
func (m *Mapping) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	var unmapErr error
	if m.data != nil {
		unmapErr = unmapFile(m.data)
		m.data = nil
	}

	var closeErr error
	if m.file != nil {
		closeErr = m.file.Close()
		m.file = nil
	}

	return errors.Join(unmapErr, closeErr)
}
