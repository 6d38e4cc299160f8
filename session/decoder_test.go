// File: session/decoder_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package session

import (
	"errors"
	"testing"

	"github.com/momentics/wspipe/api"
	"github.com/momentics/wspipe/fake"
	"github.com/momentics/wspipe/pipeline"
	"github.com/momentics/wspipe/protocol"
)

type frameSink struct {
	pipeline.BaseHandler
	frames []*protocol.Frame
	errs   []error
}

func (s *frameSink) Read(ctx *pipeline.Context, msg any) {
	if f, ok := msg.(*protocol.Frame); ok {
		s.frames = append(s.frames, f)
	}
}

func (s *frameSink) Error(ctx *pipeline.Context, err error) {
	s.errs = append(s.errs, err)
}

func TestFrameDecodeHandlerEmitsFramesInOrder(t *testing.T) {
	p := pipeline.New(fake.NewWriter(), fake.NewExecutor())
	sink := &frameSink{}
	p.AddLast(NewFrameDecodeHandler(0))
	p.AddLast(sink)

	a, _ := protocol.EncodeFrame(protocol.OpcodeText, []byte("one"), false, false)
	b, _ := protocol.EncodeFrame(protocol.OpcodeContinuation, []byte("two"), true, false)
	stream := append(a, b...)

	// Feed in awkward chunk sizes to exercise partial-frame buffering.
	p.FireRead(stream[:3])
	p.FireRead(stream[3:6])
	p.FireRead(stream[6:])

	if len(sink.frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(sink.frames))
	}
	if string(sink.frames[0].UnmaskedPayload()) != "one" || string(sink.frames[1].UnmaskedPayload()) != "two" {
		t.Fatal("frame payloads out of order")
	}
}

func TestFrameDecodeHandlerReportsOversize(t *testing.T) {
	p := pipeline.New(fake.NewWriter(), fake.NewExecutor())
	sink := &frameSink{}
	p.AddLast(NewFrameDecodeHandler(8))
	p.AddLast(sink)

	buf, _ := protocol.EncodeFrame(protocol.OpcodeBinary, make([]byte, 64), true, false)
	p.FireRead(buf)

	if len(sink.errs) != 1 || !errors.Is(sink.errs[0], api.ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", sink.errs)
	}
}
