// Package pool provides reusable byte buffers for reading TDM documents.
//
// A document is read into a pooled buffer, unwrapped and parsed into an element
// tree; afterwards the raw bytes are no longer referenced and the buffer goes
// back to the pool.
package pool

import (
	"io"
	"sync"
)

const (
	DocumentBufferDefaultSize  = 64 * 1024        // 64KiB
	DocumentBufferMaxThreshold = 16 * 1024 * 1024 // 16MiB
)

// minRead is the minimum free space kept ahead of each Read call in ReadFrom.
const minRead = 4096

type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified default size.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset empties the buffer but keeps its capacity.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Grow ensures room for requiredBytes more bytes without reallocating.
//
// Small buffers grow by DocumentBufferDefaultSize, larger ones by 25% of
// their capacity, and never by less than requiredBytes.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	if cap(bb.B)-len(bb.B) >= requiredBytes {
		return
	}

	growBy := DocumentBufferDefaultSize
	if cap(bb.B) > 4*DocumentBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}
	growBy = max(growBy, requiredBytes)

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// Write appends data to the buffer.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// ReadFrom appends everything r yields until io.EOF.
func (bb *ByteBuffer) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	for {
		bb.Grow(minRead)
		n, err := r.Read(bb.B[len(bb.B):cap(bb.B)])
		bb.B = bb.B[:len(bb.B)+n]
		total += int64(n)
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// ByteBufferPool is a pool of ByteBuffers.
//
// Buffers whose capacity exceeds maxThreshold are dropped on Put so a single
// large document does not pin memory for the process lifetime.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a new ByteBufferPool with buffers of the specified default size.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var documentPool = NewByteBufferPool(DocumentBufferDefaultSize, DocumentBufferMaxThreshold)

// GetDocumentBuffer retrieves a ByteBuffer from the default document pool.
func GetDocumentBuffer() *ByteBuffer {
	return documentPool.Get()
}

// PutDocumentBuffer returns a ByteBuffer to the default document pool.
func PutDocumentBuffer(bb *ByteBuffer) {
	documentPool.Put(bb)
}
