// File: pipeline/pipeline.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pipeline is an ordered inbound handler chain mounted over a transport.
// Inbound events enter at the head and flow toward the tail; each handler
// decides whether to consume an event or pass it on. All mutation and
// event dispatch is confined to the connection's event loop, so the chain
// needs no locking.

package pipeline

import "github.com/momentics/wspipe/api"

// Handler reacts to connection lifecycle and inbound events.
type Handler interface {
	// Active fires once when the transport is connected and the handler is
	// mounted.
	Active(ctx *Context)

	// Read delivers one inbound event. Handlers forward events they do not
	// consume with ctx.FireRead.
	Read(ctx *Context, msg any)

	// Error delivers a transport or decode failure.
	Error(ctx *Context, err error)

	// Inactive fires once when the transport is fully torn down.
	Inactive(ctx *Context)
}

// BaseHandler provides pass-through defaults so handlers override only the
// hooks they need.
type BaseHandler struct{}

func (BaseHandler) Active(ctx *Context)           { ctx.FireActive() }
func (BaseHandler) Read(ctx *Context, msg any)    { ctx.FireRead(msg) }
func (BaseHandler) Error(ctx *Context, err error) { ctx.FireError(err) }
func (BaseHandler) Inactive(ctx *Context)         { ctx.FireInactive() }

// Pipeline owns the handler chain of one connection.
type Pipeline struct {
	writer api.Writer
	loop   api.Executor
	head   *Context
	tail   *Context
}

// New creates an empty pipeline over writer, bound to loop.
func New(writer api.Writer, loop api.Executor) *Pipeline {
	return &Pipeline{writer: writer, loop: loop}
}

// Writer returns the outbound transport half.
func (p *Pipeline) Writer() api.Writer { return p.writer }

// Loop returns the executor all pipeline events run on.
func (p *Pipeline) Loop() api.Executor { return p.loop }

// AddLast appends h to the tail of the chain.
func (p *Pipeline) AddLast(h Handler) *Context {
	ctx := &Context{pipeline: p, handler: h}
	if p.tail == nil {
		p.head, p.tail = ctx, ctx
		return ctx
	}
	ctx.prev = p.tail
	p.tail.next = ctx
	p.tail = ctx
	return ctx
}

// Remove unlinks the context holding h. Events in flight past the removed
// handler are unaffected.
func (p *Pipeline) Remove(h Handler) bool {
	for ctx := p.head; ctx != nil; ctx = ctx.next {
		if ctx.handler != h {
			continue
		}
		if ctx.prev != nil {
			ctx.prev.next = ctx.next
		} else {
			p.head = ctx.next
		}
		if ctx.next != nil {
			ctx.next.prev = ctx.prev
		} else {
			p.tail = ctx.prev
		}
		ctx.removed = true
		return true
	}
	return false
}

// FireActive propagates transport activation from the head.
func (p *Pipeline) FireActive() {
	if p.head != nil {
		p.head.handler.Active(p.head)
	}
}

// FireRead injects an inbound event at the head.
func (p *Pipeline) FireRead(msg any) {
	if p.head != nil {
		p.head.handler.Read(p.head, msg)
	}
}

// FireError injects a failure at the head.
func (p *Pipeline) FireError(err error) {
	if p.head != nil {
		p.head.handler.Error(p.head, err)
	}
}

// FireInactive propagates teardown from the head.
func (p *Pipeline) FireInactive() {
	if p.head != nil {
		p.head.handler.Inactive(p.head)
	}
}

// Context is a handler's view of its position in the chain.
type Context struct {
	pipeline *Pipeline
	handler  Handler
	prev     *Context
	next     *Context
	removed  bool
}

// Pipeline returns the owning pipeline.
func (c *Context) Pipeline() *Pipeline { return c.pipeline }

// Write sends p to the transport.
func (c *Context) Write(p []byte) error {
	return c.pipeline.writer.Write(p)
}

// WriteAndFlush sends p and flushes the transport.
func (c *Context) WriteAndFlush(p []byte) error {
	return c.pipeline.writer.WriteAndFlush(p)
}

// Close tears down the transport.
func (c *Context) Close() error {
	return c.pipeline.writer.Close()
}

// FireActive passes activation to the next handler.
func (c *Context) FireActive() {
	if next := c.liveNext(); next != nil {
		next.handler.Active(next)
	}
}

// FireRead passes msg to the next handler.
func (c *Context) FireRead(msg any) {
	if next := c.liveNext(); next != nil {
		next.handler.Read(next, msg)
	}
}

// FireError passes err to the next handler.
func (c *Context) FireError(err error) {
	if next := c.liveNext(); next != nil {
		next.handler.Error(next, err)
	}
}

// FireInactive passes teardown to the next handler.
func (c *Context) FireInactive() {
	if next := c.liveNext(); next != nil {
		next.handler.Inactive(next)
	}
}

// liveNext skips over contexts removed while an event was in flight.
func (c *Context) liveNext() *Context {
	next := c.next
	for next != nil && next.removed {
		next = next.next
	}
	return next
}
