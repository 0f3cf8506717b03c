package queue

import "sync"

// BufferPool provides pooled byte slices for socket reads, re-bucketed from
// the teacher's disk-I/O sizes (128KB..1MB) down to the socket read sizes
// spec.md §4.2 actually uses (512B..64KB, internal/constants.MinReadBuffer
// and MaxBuffer). Uses the teacher's *[]byte pointer pattern to avoid the
// sync.Pool interface-boxing allocation on the hot read path.

// Buffer size thresholds.
const (
	size512b = 512
	size4k   = 4 * 1024
	size16k  = 16 * 1024
	size64k  = 64 * 1024
)

// globalPool is the shared buffer pool for every read on every connection.
var globalPool = struct {
	pool512b sync.Pool
	pool4k   sync.Pool
	pool16k  sync.Pool
	pool64k  sync.Pool
}{
	pool512b: sync.Pool{New: func() any { b := make([]byte, size512b); return &b }},
	pool4k:   sync.Pool{New: func() any { b := make([]byte, size4k); return &b }},
	pool16k:  sync.Pool{New: func() any { b := make([]byte, size16k); return &b }},
	pool64k:  sync.Pool{New: func() any { b := make([]byte, size64k); return &b }},
}

// GetBuffer returns a pooled buffer of at least the requested size, capped
// to internal/constants.MaxBuffer by the caller. The caller must call
// PutBuffer when done with it.
func GetBuffer(size int) []byte {
	switch {
	case size <= size512b:
		return (*globalPool.pool512b.Get().(*[]byte))[:size]
	case size <= size4k:
		return (*globalPool.pool4k.Get().(*[]byte))[:size]
	case size <= size16k:
		return (*globalPool.pool16k.Get().(*[]byte))[:size]
	default:
		return (*globalPool.pool64k.Get().(*[]byte))[:size]
	}
}

// PutBuffer returns a buffer to the pool it came from, determined by its
// capacity. Buffers with a non-standard capacity (e.g. a caller-supplied
// slice never obtained from GetBuffer) are simply dropped.
func PutBuffer(buf []byte) {
	c := cap(buf)
	buf = buf[:c]
	switch c {
	case size512b:
		globalPool.pool512b.Put(&buf)
	case size4k:
		globalPool.pool4k.Put(&buf)
	case size16k:
		globalPool.pool16k.Put(&buf)
	case size64k:
		globalPool.pool64k.Put(&buf)
	}
}
