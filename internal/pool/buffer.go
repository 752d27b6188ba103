package pool

import "sync"

const (
	// SmallBufferSize is used for transfers up to 64KB
	SmallBufferSize = 4 * 1024
	// MediumBufferSize is used for transfers up to 4MB
	MediumBufferSize = 64 * 1024
	// LargeBufferSize is used for larger or unknown-size transfers
	LargeBufferSize = 1024 * 1024
)

// BufferPool hands out full-length byte slices suitable for io.CopyBuffer.
type BufferPool struct {
	tiers [3]sync.Pool
}

var sizes = [3]int{SmallBufferSize, MediumBufferSize, LargeBufferSize}

// NewBufferPool creates an empty buffer pool.
func NewBufferPool() *BufferPool {
	bp := &BufferPool{}
	for i := range bp.tiers {
		size := sizes[i]
		bp.tiers[i].New = func() any {
			buf := make([]byte, size)
			return &buf
		}
	}
	return bp
}

// tier picks the buffer tier for a transfer of the given size.
// A negative size means unknown.
func tier(transferSize int64) int {
	switch {
	case transferSize < 0:
		return 2
	case transferSize <= 16*SmallBufferSize:
		return 0
	case transferSize <= 64*MediumBufferSize:
		return 1
	default:
		return 2
	}
}

// Get returns a copy buffer for a transfer of transferSize bytes. The caller
// must hand it back with Put.
func (bp *BufferPool) Get(transferSize int64) *[]byte {
	return bp.tiers[tier(transferSize)].Get().(*[]byte)
}

// Put returns a buffer to its tier. Buffers of foreign sizes are dropped.
func (bp *BufferPool) Put(buf *[]byte) {
	if buf == nil {
		return
	}
	for i, size := range sizes {
		if cap(*buf) == size {
			*buf = (*buf)[:size]
			bp.tiers[i].Put(buf)
			return
		}
	}
}

var global = NewBufferPool()

// Get returns a buffer from the shared pool.
func Get(transferSize int64) *[]byte {
	return global.Get(transferSize)
}

// Put returns a buffer to the shared pool.
func Put(buf *[]byte) {
	global.Put(buf)
}
