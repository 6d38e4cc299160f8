// File: transport/conn.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Conn mounts a net.Conn under a pipeline and binds both to one event
// loop. A dedicated pump goroutine performs the blocking reads and posts
// each inbound chunk to the loop, so every pipeline event for the
// connection runs single-threaded in arrival order.

package transport

import (
	"net"
	"sync/atomic"

	"github.com/momentics/wspipe/concurrency"
	"github.com/momentics/wspipe/pipeline"
	"github.com/momentics/wspipe/pool"
)

// ReadChunkSize is the transport read buffer size handed to the pump.
const ReadChunkSize = 32 * 1024

var readBuffers = pool.NewBytePool(ReadChunkSize)

// Conn is the exclusive owner of one network connection.
type Conn struct {
	raw  net.Conn
	loop *concurrency.Loop
	pipe *pipeline.Pipeline

	closed atomic.Bool
}

// NewConn wraps raw and builds an empty pipeline over it. The caller
// populates the pipeline, then calls Start.
func NewConn(raw net.Conn, loop *concurrency.Loop) *Conn {
	c := &Conn{raw: raw, loop: loop}
	c.pipe = pipeline.New(c, loop)
	return c
}

// Pipeline returns the handler chain mounted on this connection.
func (c *Conn) Pipeline() *pipeline.Pipeline { return c.pipe }

// Loop returns the event loop this connection is bound to.
func (c *Conn) Loop() *concurrency.Loop { return c.loop }

// Start fires Active through the pipeline and launches the read pump.
func (c *Conn) Start() {
	c.loop.Execute(c.pipe.FireActive)
	go c.readPump()
}

// Write sends p on the underlying connection. net.Conn serializes
// concurrent writers, so submission order from the loop is wire order.
func (c *Conn) Write(p []byte) error {
	_, err := c.raw.Write(p)
	return err
}

// WriteAndFlush sends p; the underlying connection is unbuffered, so this
// is Write.
func (c *Conn) WriteAndFlush(p []byte) error {
	return c.Write(p)
}

// Close tears down the connection exactly once and fires Inactive on the
// loop.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := c.raw.Close()
	c.loop.Execute(c.pipe.FireInactive)
	return err
}

// readPump reads raw chunks and posts them to the loop until the
// connection fails or closes.
func (c *Conn) readPump() {
	for {
		buf := readBuffers.Acquire()
		n, err := c.raw.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			c.loop.Execute(func() { c.pipe.FireRead(chunk) })
		}
		readBuffers.Release(buf)
		if err != nil {
			if !c.closed.Load() {
				c.loop.Execute(func() { c.pipe.FireError(err) })
			}
			c.Close()
			return
		}
	}
}
