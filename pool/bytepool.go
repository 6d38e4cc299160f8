// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Reusable byte buffers for transport read pumps. One buffer is in flight
// per pump iteration, so a sync.Pool keyed by a fixed chunk size is
// sufficient; chunks are returned after the loop has consumed the inbound
// event built from them.

package pool

import "sync"

// BytePool hands out fixed-size read buffers.
type BytePool struct {
	size int
	pool sync.Pool
}

// NewBytePool creates a pool of size-byte buffers.
func NewBytePool(size int) *BytePool {
	p := &BytePool{size: size}
	p.pool.New = func() any { return make([]byte, size) }
	return p
}

// Acquire returns a buffer of the pool's chunk size.
func (p *BytePool) Acquire() []byte {
	return p.pool.Get().([]byte)
}

// Release returns buf to the pool. Buffers of a foreign size are dropped.
func (p *BytePool) Release(buf []byte) {
	if cap(buf) != p.size {
		return
	}
	p.pool.Put(buf[:p.size])
}

// ChunkSize returns the size of buffers handed out by Acquire.
func (p *BytePool) ChunkSize() int {
	return p.size
}
