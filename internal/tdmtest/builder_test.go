package tdmtest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/tdm/endian"
	"github.com/arloliu/tdm/format"
	"github.com/arloliu/tdm/xmltree"
)

func TestBuild_Layout(t *testing.T) {
	doc, tdx := Sample().Build()

	root, err := xmltree.Parse(bytes.NewReader(doc), nil)
	require.NoError(t, err)
	require.Equal(t, "tdm", root.Name)

	file := root.Find("include", "file")
	require.NotNil(t, file)
	require.Equal(t, "littleEndian", file.Attr("byteOrder"))
	require.Equal(t, "data.tdx", file.Attr("url"))
	require.Len(t, file.ChildrenNamed("block"), 5)

	// 4*8 + 6*8 + 6*4 + 2*8 + 1*4
	require.Len(t, tdx, 124)
}

func TestEncode(t *testing.T) {
	engine := endian.GetBigEndianEngine()

	require.Equal(t, []byte{0xFF, 0xFE}, Encode(engine, format.ValueTypeInt16, []float64{-2}))
	require.Equal(t, []byte{0, 0, 1, 0}, Encode(engine, format.ValueTypeUInt32, []float64{256}))
	require.Equal(t, []byte{0x80}, Encode(engine, format.ValueTypeInt8, []float64{-128}))
	require.Len(t, Encode(engine, format.ValueTypeFloat64, []float64{1, 2}), 16)
}

func TestWrite(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, Sample().URL("blocks.tdx").Write(fs, "dir/sample.tdm", WrapZip))

	doc, err := util.ReadFile(fs, "dir/sample.tdm")
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(doc, []byte("PK\x03\x04")))

	_, err = fs.Stat("dir/blocks.tdx")
	require.NoError(t, err)
}

func TestEscape(t *testing.T) {
	b := NewBuilder()
	b.Group(`a<b & "c"`).Add(Channel{Name: "x>y", Values: []float64{1}})

	doc, _ := b.Build()
	root, err := xmltree.Parse(bytes.NewReader(doc), nil)
	require.NoError(t, err)

	var names []string
	root.Walk(func(e *xmltree.Element) bool {
		if e.Name == "tdm_channelgroup" || e.Name == "tdm_channel" {
			names = append(names, strings.TrimSpace(e.ChildText("name")))
		}
		return true
	})
	require.Equal(t, []string{`a<b & "c"`, "x>y"}, names)
}
