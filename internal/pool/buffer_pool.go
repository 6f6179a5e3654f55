// Package pool provides pooled scratch buffers for stream comparison,
// keeping the per-entry hot path free of allocations.
package pool

import "sync"

const (
	// CompareBufferSize is the chunk size used when byte-comparing entry
	// streams. Most archive entries fit in a single chunk.
	CompareBufferSize = 32 * 1024

	// CompareBufferMaxThreshold caps the capacity of buffers returned to
	// the pool so a single oversized entry cannot pin memory.
	CompareBufferMaxThreshold = 256 * 1024
)

// Buffer is a reusable byte slice with its own backing array.
type Buffer struct {
	B []byte
}

// SetLength resizes the buffer to n bytes, reallocating if the current
// capacity is insufficient. Existing content is not preserved on growth.
func (b *Buffer) SetLength(n int) {
	if cap(b.B) < n {
		b.B = make([]byte, n)
		return
	}
	b.B = b.B[:n]
}

// BufferPool is a sync.Pool of Buffers with a retention cap.
type BufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewBufferPool creates a pool whose fresh buffers have defaultSize bytes
// and which discards returned buffers above maxThreshold capacity.
func NewBufferPool(defaultSize, maxThreshold int) *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() any {
				return &Buffer{B: make([]byte, defaultSize)}
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a Buffer from the pool.
func (p *BufferPool) Get() *Buffer {
	b, _ := p.pool.Get().(*Buffer)
	return b
}

// Put returns a Buffer to the pool for reuse. Oversized buffers are
// discarded instead of retained.
func (p *BufferPool) Put(b *Buffer) {
	if b == nil {
		return
	}
	if p.maxThreshold > 0 && cap(b.B) > p.maxThreshold {
		return
	}
	b.B = b.B[:cap(b.B)]
	p.pool.Put(b)
}

var comparePool = NewBufferPool(CompareBufferSize, CompareBufferMaxThreshold)

// GetCompareBuffer retrieves a stream-comparison buffer from the default pool.
func GetCompareBuffer() *Buffer {
	return comparePool.Get()
}

// PutCompareBuffer returns a stream-comparison buffer to the default pool.
func PutCompareBuffer(b *Buffer) {
	comparePool.Put(b)
}
