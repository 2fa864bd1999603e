package pool

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(1024)

	require.NotNil(t, bb)
	require.Equal(t, 0, bb.Len())
	require.Equal(t, 1024, cap(bb.B))
}

func TestByteBuffer_Grow(t *testing.T) {
	t.Run("no-op with enough capacity", func(t *testing.T) {
		bb := NewByteBuffer(128)
		bb.Grow(64)
		require.Equal(t, 128, cap(bb.B))
	})

	t.Run("small buffer grows by default size", func(t *testing.T) {
		bb := NewByteBuffer(16)
		_, _ = bb.Write([]byte("0123456789abcdef"))
		bb.Grow(1)
		require.Equal(t, 16+DocumentBufferDefaultSize, cap(bb.B))
		require.Equal(t, []byte("0123456789abcdef"), bb.Bytes())
	})

	t.Run("large request wins", func(t *testing.T) {
		bb := NewByteBuffer(0)
		bb.Grow(DocumentBufferDefaultSize * 3)
		require.GreaterOrEqual(t, cap(bb.B), DocumentBufferDefaultSize*3)
	})
}

func TestByteBuffer_ReadFrom(t *testing.T) {
	payload := strings.Repeat("<block/>", 10_000)
	bb := NewByteBuffer(8)

	n, err := bb.ReadFrom(strings.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, int64(len(payload)), n)
	require.Equal(t, payload, string(bb.Bytes()))
}

type failingReader struct{ sent bool }

func (r *failingReader) Read(p []byte) (int, error) {
	if r.sent {
		return 0, errors.New("disk gone")
	}
	r.sent = true

	return copy(p, "<usi"), nil
}

func TestByteBuffer_ReadFrom_Error(t *testing.T) {
	bb := NewByteBuffer(8)

	n, err := bb.ReadFrom(&failingReader{})
	require.EqualError(t, err, "disk gone")
	require.Equal(t, int64(4), n)
	require.Equal(t, "<usi", string(bb.Bytes()))
}

func TestByteBufferPool_PutResets(t *testing.T) {
	p := NewByteBufferPool(64, 1024)

	bb := p.Get()
	_, _ = bb.ReadFrom(io.LimitReader(bytes.NewReader(make([]byte, 100)), 100))
	p.Put(bb)

	// sync.Pool may or may not hand back the same buffer; either way it is empty
	require.Equal(t, 0, p.Get().Len())
}

func TestByteBufferPool_DropsOversized(t *testing.T) {
	p := NewByteBufferPool(64, 128)

	bb := NewByteBuffer(4096)
	p.Put(bb)
	p.Put(nil)

	got := p.Get()
	require.LessOrEqual(t, cap(got.B), 128)
}

func TestDocumentBufferPool(t *testing.T) {
	bb := GetDocumentBuffer()
	require.NotNil(t, bb)
	require.Equal(t, 0, bb.Len())
	PutDocumentBuffer(bb)
}
