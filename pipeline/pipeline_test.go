// File: pipeline/pipeline_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pipeline

import (
	"errors"
	"testing"

	"github.com/momentics/wspipe/fake"
)

// tapHandler records everything that reaches it and forwards onward.
type tapHandler struct {
	BaseHandler
	name    string
	reads   []any
	actives int
	errs    []error
	inact   int
}

func (h *tapHandler) Active(ctx *Context) {
	h.actives++
	ctx.FireActive()
}

func (h *tapHandler) Read(ctx *Context, msg any) {
	h.reads = append(h.reads, msg)
	ctx.FireRead(msg)
}

func (h *tapHandler) Error(ctx *Context, err error) {
	h.errs = append(h.errs, err)
	ctx.FireError(err)
}

func (h *tapHandler) Inactive(ctx *Context) {
	h.inact++
	ctx.FireInactive()
}

func newPipe() (*Pipeline, *fake.Writer) {
	w := fake.NewWriter()
	return New(w, fake.NewExecutor()), w
}

func TestEventsFlowHeadToTail(t *testing.T) {
	p, _ := newPipe()
	a := &tapHandler{name: "a"}
	b := &tapHandler{name: "b"}
	p.AddLast(a)
	p.AddLast(b)

	p.FireActive()
	p.FireRead("one")
	p.FireRead("two")
	p.FireError(errors.New("boom"))
	p.FireInactive()

	for _, h := range []*tapHandler{a, b} {
		if h.actives != 1 || h.inact != 1 {
			t.Fatalf("%s lifecycle: actives=%d inact=%d", h.name, h.actives, h.inact)
		}
		if len(h.reads) != 2 || h.reads[0] != "one" || h.reads[1] != "two" {
			t.Fatalf("%s reads: %v", h.name, h.reads)
		}
		if len(h.errs) != 1 {
			t.Fatalf("%s errs: %v", h.name, h.errs)
		}
	}
}

// consumeHandler swallows events instead of forwarding.
type consumeHandler struct {
	BaseHandler
	reads []any
}

func (h *consumeHandler) Read(ctx *Context, msg any) {
	h.reads = append(h.reads, msg)
}

func TestConsumedEventsStop(t *testing.T) {
	p, _ := newPipe()
	eater := &consumeHandler{}
	after := &tapHandler{name: "after"}
	p.AddLast(eater)
	p.AddLast(after)

	p.FireRead("swallowed")
	if len(after.reads) != 0 {
		t.Fatal("consumed event must not reach later handlers")
	}
}

// removeSelfHandler removes itself on first read and forwards the event.
type removeSelfHandler struct {
	BaseHandler
}

func (h *removeSelfHandler) Read(ctx *Context, msg any) {
	ctx.Pipeline().Remove(h)
	ctx.FireRead(msg)
}

func TestRemoveDuringDispatch(t *testing.T) {
	p, _ := newPipe()
	self := &removeSelfHandler{}
	tail := &tapHandler{name: "tail"}
	p.AddLast(self)
	p.AddLast(tail)

	p.FireRead("first")
	p.FireRead("second")

	if len(tail.reads) != 2 {
		t.Fatalf("tail reads: %v", tail.reads)
	}
}

func TestContextWriteReachesTransport(t *testing.T) {
	p, w := newPipe()
	h := &tapHandler{name: "h"}
	ctx := p.AddLast(h)

	if err := ctx.Write([]byte("out")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := ctx.WriteAndFlush([]byte("flush")); err != nil {
		t.Fatalf("flush: %v", err)
	}
	wr := w.Written()
	if len(wr) != 2 || string(wr[0]) != "out" || string(wr[1]) != "flush" {
		t.Fatalf("written: %q", wr)
	}
	if err := ctx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !w.Closed() {
		t.Fatal("transport must be closed")
	}
}
