// File: session/session.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Session owns one established WebSocket connection and runs its protocol
// state machine: fragment reassembly, the close handshake, ping handling
// and the per-role masking policy. All state transitions execute on the
// connection's event loop, in frame arrival order, so the session holds no
// locks around its own state.

package session

import (
	"errors"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/momentics/wspipe/api"
	"github.com/momentics/wspipe/concurrency"
	"github.com/momentics/wspipe/pipeline"
	"github.com/momentics/wspipe/protocol"
)

// Role distinguishes the two endpoint behaviors fixed by RFC6455.
type Role uint8

const (
	RoleClient Role = iota
	RoleServer
)

// Masked reports whether frames originated by this role carry a mask key.
// A pure function of role: clients always mask, servers never do.
func (r Role) Masked() bool {
	return r == RoleClient
}

// String implements fmt.Stringer for log fields.
func (r Role) String() string {
	if r == RoleClient {
		return "client"
	}
	return "server"
}

// Session is the WebSocket abstraction handed to application code after a
// successful upgrade. It implements pipeline.Handler and consumes decoded
// protocol frames.
type Session struct {
	pipeline.BaseHandler

	id     uuid.UUID
	role   Role
	writer api.Writer
	loop   api.Executor
	log    zerolog.Logger

	// Loop-confined state.
	closed bool
	agg    *assembler

	// Single-slot callbacks; the latest registration wins.
	onText   func(string)
	onBinary func([]byte)

	closePromise *concurrency.Promise

	framesIn  atomic.Int64
	framesOut atomic.Int64
	bytesIn   atomic.Int64
	bytesOut  atomic.Int64
}

// New creates a Session of the given role over writer, bound to loop.
func New(role Role, writer api.Writer, loop api.Executor, logger zerolog.Logger) *Session {
	id := uuid.New()
	return &Session{
		id:           id,
		role:         role,
		writer:       writer,
		loop:         loop,
		log:          logger.With().Str("session", id.String()).Stringer("role", role).Logger(),
		closePromise: concurrency.NewPromise(loop),
	}
}

// ID returns the session's identity used in log correlation.
func (s *Session) ID() uuid.UUID { return s.id }

// Role returns the session's endpoint role.
func (s *Session) Role() Role { return s.role }

// OnText registers the text-message callback, replacing any previous one.
func (s *Session) OnText(cb func(string)) {
	s.loop.Execute(func() { s.onText = cb })
}

// OnBinary registers the binary-message callback, replacing any previous
// one.
func (s *Session) OnBinary(cb func([]byte)) {
	s.loop.Execute(func() { s.onBinary = cb })
}

// CloseFuture resolves when the underlying connection is fully torn down.
func (s *Session) CloseFuture() *concurrency.Promise {
	return s.closePromise
}

// SendText submits one final text frame.
func (s *Session) SendText(text string) error {
	return s.Send([]byte(text), protocol.OpcodeText, true)
}

// SendBinary submits one final binary frame.
func (s *Session) SendBinary(data []byte) error {
	return s.Send(data, protocol.OpcodeBinary, true)
}

// Send submits one outbound frame with the role's masking policy applied.
// There is no defensive closed check on this path; a send racing a close is
// surfaced by the transport.
func (s *Session) Send(data []byte, opcode byte, fin bool) error {
	buf, err := protocol.EncodeFrame(opcode, data, fin, s.role.Masked())
	if err != nil {
		return err
	}
	if err := s.writer.Write(buf); err != nil {
		return err
	}
	s.framesOut.Add(1)
	s.bytesOut.Add(int64(len(data)))
	return nil
}

// Close initiates the close handshake with code. Idempotent: the first
// call writes one close frame, later calls resolve immediately without
// another frame. The returned promise resolves once the close frame has
// been accepted by the transport.
func (s *Session) Close(code uint16) *concurrency.Promise {
	p := concurrency.NewPromise(s.loop)
	s.loop.Execute(func() {
		if s.closed {
			p.Complete()
			return
		}
		s.closed = true
		buf, err := protocol.EncodeFrame(protocol.OpcodeClose, protocol.ClosePayload(code), true, s.role.Masked())
		if err != nil {
			p.Fail(err)
			return
		}
		if err := s.writer.WriteAndFlush(buf); err != nil {
			p.Fail(err)
			return
		}
		s.framesOut.Add(1)
		s.log.Debug().Uint16("code", code).Msg("close frame sent")
		p.Complete()
	})
	return p
}

// Read implements pipeline.Handler; only decoded frames are consumed.
func (s *Session) Read(ctx *pipeline.Context, msg any) {
	frame, ok := msg.(*protocol.Frame)
	if !ok {
		ctx.FireRead(msg)
		return
	}
	s.framesIn.Add(1)
	s.bytesIn.Add(int64(len(frame.Payload)))
	s.handleFrame(frame)
}

// Error implements pipeline.Handler. An oversize inbound frame gets the
// dedicated close code; any other failure tears the transport down.
func (s *Session) Error(ctx *pipeline.Context, err error) {
	if errors.Is(err, api.ErrFrameTooLarge) {
		s.log.Debug().Err(err).Msg("inbound frame too large")
		s.agg = nil
		s.Close(protocol.CloseMessageTooBig)
		return
	}
	s.log.Debug().Err(err).Msg("transport error")
	_ = s.writer.Close()
}

// Inactive implements pipeline.Handler; the connection is gone, resolve
// the close observable. Teardown without a prior close handshake is a
// peer disconnect and resolves the same way.
func (s *Session) Inactive(ctx *pipeline.Context) {
	if !s.closed {
		s.closed = true
		s.log.Debug().Msg("connection dropped without close handshake")
	}
	s.closePromise.Complete()
}

// handleFrame is the per-frame state transition, executed on the loop in
// arrival order. Control semantics run first; the finality check at the
// end makes a final data fragment and its message dispatch happen within
// the same inbound event.
func (s *Session) handleFrame(frame *protocol.Frame) {
	switch {
	case frame.Opcode == protocol.OpcodeClose:
		s.handleClose(frame)
		return

	case frame.Opcode == protocol.OpcodePing:
		if !frame.IsFinal {
			// A fragmented control frame is malformed by itself.
			s.protocolError("fragmented ping")
			return
		}
		s.handlePing(frame)
		return

	case protocol.IsData(frame.Opcode):
		if s.agg != nil {
			// A new data sequence may not start before the previous one
			// finished.
			s.protocolError("data frame during open fragment sequence")
			return
		}
		kind := kindText
		if frame.Opcode == protocol.OpcodeBinary {
			kind = kindBinary
		}
		s.agg = newAssembler(kind)
		if err := s.agg.append(frame); err != nil {
			s.invalidPayload()
			return
		}

	case frame.Opcode == protocol.OpcodeContinuation:
		if s.agg == nil {
			s.protocolError("continuation without sequence")
			return
		}
		if err := s.agg.append(frame); err != nil {
			s.invalidPayload()
			return
		}

	default:
		// Unrecognized opcodes are ignored for forward compatibility.
		return
	}

	if s.agg != nil && frame.IsFinal {
		s.dispatch()
	}
}

// handleClose runs both directions of the close handshake.
func (s *Session) handleClose(frame *protocol.Frame) {
	if s.closed {
		// Peer confirmed our close; nothing further is expected.
		_ = s.writer.Close()
		return
	}
	code := protocol.CloseGoingAway
	if c, ok := frame.CloseCode(); ok {
		code = c
	}
	s.Close(code).OnComplete(func(error) {
		_ = s.writer.Close()
	})
}

// handlePing answers a final ping with a pong carrying the same payload.
func (s *Session) handlePing(frame *protocol.Frame) {
	buf, err := protocol.EncodeFrame(protocol.OpcodePong, frame.UnmaskedPayload(), true, s.role.Masked())
	if err != nil {
		s.log.Warn().Err(err).Msg("pong encode failed")
		return
	}
	if err := s.writer.WriteAndFlush(buf); err != nil {
		s.log.Debug().Err(err).Msg("pong write failed")
		return
	}
	s.framesOut.Add(1)
}

// dispatch delivers the completed message to the matching callback and
// clears the aggregator.
func (s *Session) dispatch() {
	agg := s.agg
	s.agg = nil
	text, binary, err := agg.complete()
	if err != nil {
		s.invalidPayload()
		return
	}
	if agg.kind == kindText {
		if s.onText != nil {
			s.onText(text)
		}
		return
	}
	if s.onBinary != nil {
		s.onBinary(binary)
	}
}

// protocolError aborts any in-flight sequence and starts a close handshake
// with CloseProtocolError. The application learns of the outcome through
// the close observable only.
func (s *Session) protocolError(reason string) {
	s.log.Debug().Str("reason", reason).Msg("protocol violation")
	s.agg = nil
	s.Close(protocol.CloseProtocolError)
}

// invalidPayload aborts a text sequence whose bytes cannot form UTF-8.
func (s *Session) invalidPayload() {
	s.log.Debug().Msg("invalid text payload")
	s.agg = nil
	s.Close(protocol.CloseInvalidPayloadData)
}

// Stats returns a snapshot of traffic counters.
func (s *Session) Stats() map[string]int64 {
	return map[string]int64{
		"frames_received": s.framesIn.Load(),
		"frames_sent":     s.framesOut.Load(),
		"bytes_received":  s.bytesIn.Load(),
		"bytes_sent":      s.bytesOut.Load(),
	}
}
