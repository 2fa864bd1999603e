package container

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/arloliu/tdm/errs"
	"github.com/arloliu/tdm/format"
	"github.com/arloliu/tdm/internal/tdmtest"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
		path   string
		want   Kind
	}{
		{name: "zip", header: []byte("PK\x03\x04rest"), path: "a.tdm", want: KindZip},
		{name: "zip wins over suffix", header: []byte("PK\x03\x04"), path: "a.tdm.lz4", want: KindZip},
		{name: "empty zip", header: []byte("PK\x05\x06\x00\x00"), path: "a.tdm", want: KindZip},
		{name: "spanned zip", header: []byte("PK\x07\x08"), path: "a.tdm", want: KindZip},
		{name: "s2 stream", header: []byte("\xff\x06\x00\x00S2sTwO\x00"), path: "a.tdm", want: KindS2},
		{name: "lz4 frame", header: []byte{0x04, 0x22, 0x4D, 0x18, 0x64}, path: "a.tdm", want: KindLZ4},
		{name: "zstd", header: []byte{0x28, 0xB5, 0x2F, 0xFD, 0}, path: "a.tdm", want: KindZstd},
		{name: "s2", header: []byte("xx"), path: "a.tdm.s2", want: KindS2},
		{name: "lz4 upper", header: []byte("xx"), path: "A.TDM.LZ4", want: KindLZ4},
		{name: "xml", header: []byte("<?xml"), path: "a.tdm", want: KindXML},
		{name: "empty", header: nil, path: "a", want: KindXML},
		{name: "short zip prefix", header: []byte("PK"), path: "a.tdm", want: KindXML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Detect(tt.header, tt.path))
		})
	}

	require.Equal(t, "zip", KindZip.String())
	require.Equal(t, "Unknown", Kind(0).String())
}

func TestLoad_Wrappers(t *testing.T) {
	tests := []struct {
		name string
		wrap tdmtest.Wrap
		path string
		kind Kind
		ct   format.CompressionType
	}{
		{name: "xml", wrap: tdmtest.WrapNone, path: "sample.tdm", kind: KindXML, ct: format.CompressionNone},
		{name: "zip", wrap: tdmtest.WrapZip, path: "sample.tdm", kind: KindZip, ct: format.CompressionNone},
		{name: "zstd", wrap: tdmtest.WrapZstd, path: "sample.tdm", kind: KindZstd, ct: format.CompressionZstd},
		{name: "zstd suffix", wrap: tdmtest.WrapZstd, path: "sample.tdm.zst", kind: KindZstd, ct: format.CompressionZstd},
		{name: "s2 stream", wrap: tdmtest.WrapS2, path: "sample.tdm", kind: KindS2, ct: format.CompressionS2Stream},
		{name: "s2 stream suffix", wrap: tdmtest.WrapS2, path: "sample.tdm.s2", kind: KindS2, ct: format.CompressionS2Stream},
		{name: "s2 block", wrap: tdmtest.WrapS2Block, path: "sample.tdm.s2", kind: KindS2, ct: format.CompressionS2},
		{name: "lz4 frame", wrap: tdmtest.WrapLZ4, path: "sample.tdm", kind: KindLZ4, ct: format.CompressionLZ4Frame},
		{name: "lz4 frame suffix", wrap: tdmtest.WrapLZ4, path: "sample.tdm.lz4", kind: KindLZ4, ct: format.CompressionLZ4Frame},
		{name: "lz4 block", wrap: tdmtest.WrapLZ4Block, path: "sample.tdm.lz4", kind: KindLZ4, ct: format.CompressionLZ4},
	}

	plain, _ := tdmtest.Sample().Build()
	want, err := Load(writeFile(t, "plain.tdm", plain), "plain.tdm", "")
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := memfs.New()
			require.NoError(t, tdmtest.Sample().Write(fs, tt.path, tt.wrap))

			doc, err := Load(fs, tt.path, "")
			require.NoError(t, err)
			require.Equal(t, tt.kind, doc.Kind)
			require.Equal(t, tt.ct, doc.Compression)
			require.Equal(t, "tdm", doc.Root.Name)
			require.Equal(t, len(want.Root.Children), len(doc.Root.Children))
			if tt.kind == KindZip {
				require.Equal(t, "document.tdm", doc.Entry)
			} else {
				require.Empty(t, doc.Entry)
			}
		})
	}
}

func TestLoad_OSFilesystem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.tdm")
	require.NoError(t, tdmtest.Sample().Write(osfs.New("/", osfs.WithBoundOS()), path, tdmtest.WrapZip))

	doc, err := Load(osfs.New("/", osfs.WithBoundOS()), path, "")
	require.NoError(t, err)
	require.Equal(t, KindZip, doc.Kind)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(memfs.New(), "missing.tdm", "")
	require.ErrorIs(t, err, errs.ErrFileNotFound)

	empty := tdmtest.EmptyZip()
	require.True(t, bytes.HasPrefix(empty, []byte("PK\x05\x06")))
	require.Equal(t, KindZip, Detect(empty, "empty.tdm"))

	fs := writeFile(t, "empty.tdm", empty)
	_, err = Load(fs, "empty.tdm", "")
	require.ErrorIs(t, err, errs.ErrEmptyArchive)
	require.NotErrorIs(t, err, errs.ErrFileNotFound)

	fs = writeFile(t, "broken.tdm", []byte("<tdm><unclosed></tdm>"))
	_, err = Load(fs, "broken.tdm", "")
	require.ErrorIs(t, err, errs.ErrMalformedDocument)

	fs = writeFile(t, "plain.tdm", []byte("<tdm/>"))
	_, err = Load(fs, "plain.tdm", "klingon")
	require.ErrorIs(t, err, errs.ErrUnsupportedEncoding)

	fs = writeFile(t, "bad.tdm.zst", []byte{0x28, 0xB5, 0x2F, 0xFD, 1, 2, 3})
	_, err = Load(fs, "bad.tdm.zst", "")
	require.Error(t, err)
}

func TestLoad_Encoding(t *testing.T) {
	latin1 := func(s string) []byte {
		out, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
		require.NoError(t, err)
		return out
	}

	t.Run("caller encoding", func(t *testing.T) {
		fs := writeFile(t, "a.tdm", latin1(`<tdm><name>Spannung µV</name></tdm>`))

		doc, err := Load(fs, "a.tdm", "latin1")
		require.NoError(t, err)
		require.Equal(t, "Spannung µV", doc.Root.ChildText("name"))
	})

	t.Run("caller encoding overrides prolog", func(t *testing.T) {
		fs := writeFile(t, "a.tdm", latin1(`<?xml version="1.0" encoding="x-unknown"?><tdm><name>°C</name></tdm>`))

		doc, err := Load(fs, "a.tdm", "windows-1252")
		require.NoError(t, err)
		require.Equal(t, "°C", doc.Root.ChildText("name"))
	})

	t.Run("prolog encoding", func(t *testing.T) {
		fs := writeFile(t, "a.tdm", latin1(`<?xml version="1.0" encoding="ISO-8859-1"?><tdm><name>°C</name></tdm>`))

		doc, err := Load(fs, "a.tdm", "")
		require.NoError(t, err)
		require.Equal(t, "°C", doc.Root.ChildText("name"))
	})

	t.Run("unknown prolog encoding", func(t *testing.T) {
		fs := writeFile(t, "a.tdm", []byte(`<?xml version="1.0" encoding="x-unknown"?><tdm/>`))

		_, err := Load(fs, "a.tdm", "utf-8")
		require.ErrorIs(t, err, errs.ErrUnsupportedEncoding)
	})
}

func TestValidateEncoding(t *testing.T) {
	require.NoError(t, ValidateEncoding(""))
	require.NoError(t, ValidateEncoding("UTF-8"))
	require.NoError(t, ValidateEncoding("iso-8859-1"))
	require.ErrorIs(t, ValidateEncoding("ebcdic-klingon"), errs.ErrUnsupportedEncoding)
}

func TestResolveTDXPath(t *testing.T) {
	got, err := ResolveTDXPath(filepath.Join("data", "run", "a.tdm"), "a.tdx", "")
	require.NoError(t, err)
	require.Equal(t, filepath.Join("data", "run", "a.tdx"), got)

	got, err = ResolveTDXPath("a.tdm", "a.tdx", "")
	require.NoError(t, err)
	require.Equal(t, "a.tdx", got)

	got, err = ResolveTDXPath("data/a.tdm", "a.tdx", "/elsewhere/b.tdx")
	require.NoError(t, err)
	require.Equal(t, "/elsewhere/b.tdx", got)

	_, err = ResolveTDXPath("data/a.tdm", "", "")
	require.ErrorIs(t, err, errs.ErrMalformedHeader)
}

func writeFile(t *testing.T, name string, data []byte) billy.Filesystem {
	t.Helper()

	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, name, data, 0o644))

	return fs
}
