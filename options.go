package tdm

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/arloliu/tdm/container"
	"github.com/arloliu/tdm/errs"
	"github.com/arloliu/tdm/internal/options"
)

// OpenConfig holds the settings Open applies.
type OpenConfig struct {
	tdxPath  string
	encoding string
	fs       billy.Filesystem
	logger   *slog.Logger
	mmap     bool
	osPaths  bool // fs is the default OS filesystem, which needs absolute paths
}

func newOpenConfig() *OpenConfig {
	return &OpenConfig{
		encoding: container.DefaultEncoding,
		fs:       osFilesystem(),
		logger:   slog.New(slog.DiscardHandler),
		mmap:     true,
		osPaths:  true,
	}
}

// osFilesystem is bound to "/" and hands out *os.File backed files, whose
// descriptors the TDX mapping needs.
func osFilesystem() billy.Filesystem {
	return osfs.New("/", osfs.WithBoundOS())
}

// resolvePaths makes tdmPath and the TDX override absolute when reading from
// the default OS filesystem.
func (c *OpenConfig) resolvePaths(tdmPath string) (string, error) {
	if !c.osPaths {
		return tdmPath, nil
	}

	abs, err := filepath.Abs(tdmPath)
	if err != nil {
		return "", fmt.Errorf("tdm %q: %w", tdmPath, err)
	}
	if c.tdxPath != "" {
		if c.tdxPath, err = filepath.Abs(c.tdxPath); err != nil {
			return "", fmt.Errorf("tdx %q: %w", c.tdxPath, err)
		}
	}

	return abs, nil
}

// OpenOption configures Open.
type OpenOption = options.Option[*OpenConfig]

// WithTDXPath reads samples from path instead of the file named by the
// document header.
func WithTDXPath(path string) OpenOption {
	return options.NoError(func(c *OpenConfig) {
		c.tdxPath = path
	})
}

// WithEncoding sets the text encoding of a bare XML document. Any WHATWG label
// is accepted, e.g. "utf-8", "latin1", "windows-1252", "shift_jis".
// The default is UTF-8, under which an encoding declared by the XML prolog is honoured.
func WithEncoding(name string) OpenOption {
	return options.New(func(c *OpenConfig) error {
		if err := container.ValidateEncoding(name); err != nil {
			return err
		}
		c.encoding = name

		return nil
	})
}

// WithFilesystem reads both files through fs. The default is the OS filesystem.
func WithFilesystem(fs billy.Filesystem) OpenOption {
	return options.New(func(c *OpenConfig) error {
		if fs == nil {
			return fmt.Errorf("nil filesystem: %w", errs.ErrTypeMismatch)
		}
		c.fs = fs
		c.osPaths = false

		return nil
	})
}

// WithLogger routes warnings and debug records to logger. The default discards them.
func WithLogger(logger *slog.Logger) OpenOption {
	return options.NoError(func(c *OpenConfig) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithMmap enables or disables memory mapping of the TDX file.
// It is enabled by default; without it each block is read with ReadAt.
func WithMmap(enabled bool) OpenOption {
	return options.NoError(func(c *OpenConfig) {
		c.mmap = enabled
	})
}
