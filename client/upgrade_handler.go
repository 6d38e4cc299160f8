// File: client/upgrade_handler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// upgradeHandler is the transient pipeline stage alive only while the HTTP
// Upgrade is in flight. It sends the one GET request, watches the response
// head, and on a protocol switch replaces itself with the frame decoder
// and the client Session. It never sees a WebSocket frame.

package client

import (
	"bufio"
	"bytes"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/momentics/wspipe/api"
	"github.com/momentics/wspipe/concurrency"
	"github.com/momentics/wspipe/pipeline"
	"github.com/momentics/wspipe/protocol"
	"github.com/momentics/wspipe/session"
)

// maxResponseHead bounds the buffered response head before the handshake
// is abandoned.
const maxResponseHead = 16384

var headTerminator = []byte("\r\n\r\n")

// UpgradeError reports a server that declined the protocol switch. It
// carries the response head for diagnostics.
type UpgradeError struct {
	Status     string
	StatusCode int
	Header     http.Header
}

func (e *UpgradeError) Error() string {
	return fmt.Sprintf("upgrade refused: %s", e.Status)
}

type upgradeHandler struct {
	pipeline.BaseHandler

	host         string
	path         string
	key          string
	extra        http.Header
	maxFrameSize int
	promise      *concurrency.Promise
	onUpgrade    func(*session.Session)
	log          zerolog.Logger

	buf  []byte
	done bool
}

// Active sends the upgrade request as soon as the transport is connected.
func (h *upgradeHandler) Active(ctx *pipeline.Context) {
	req := protocol.BuildUpgradeRequest(h.host, h.path, h.key, h.extra)
	if err := ctx.WriteAndFlush(req); err != nil {
		h.fail(ctx, fmt.Errorf("upgrade request write: %w", err))
	}
}

// Read buffers stream chunks until a full response head has arrived, then
// either completes the protocol switch or fails the handshake.
func (h *upgradeHandler) Read(ctx *pipeline.Context, msg any) {
	chunk, ok := msg.([]byte)
	if !ok || h.done {
		ctx.FireRead(msg)
		return
	}
	h.buf = append(h.buf, chunk...)

	idx := bytes.Index(h.buf, headTerminator)
	if idx < 0 {
		if len(h.buf) > maxResponseHead {
			h.fail(ctx, fmt.Errorf("upgrade response head exceeds %d bytes", maxResponseHead))
		}
		return
	}
	head := h.buf[:idx+len(headTerminator)]
	rest := h.buf[idx+len(headTerminator):]
	h.buf = nil

	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(head)), nil)
	if err != nil {
		h.fail(ctx, fmt.Errorf("upgrade response parse: %w", err))
		return
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		h.fail(ctx, &UpgradeError{
			Status:     resp.Status,
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
		})
		return
	}
	if err := protocol.ValidateUpgradeResponse(resp, h.key); err != nil {
		h.fail(ctx, err)
		return
	}
	h.switchProtocols(ctx, rest)
}

// Error fails the outstanding handshake with the transport's failure.
func (h *upgradeHandler) Error(ctx *pipeline.Context, err error) {
	if h.done {
		ctx.FireError(err)
		return
	}
	h.fail(ctx, err)
}

// Inactive fails the handshake when the peer disconnects before switching.
func (h *upgradeHandler) Inactive(ctx *pipeline.Context) {
	if !h.done {
		h.done = true
		h.promise.Fail(api.ErrTransportClosed)
	}
	ctx.FireInactive()
}

// switchProtocols removes this handler, installs the frame decoder and the
// client session, invokes the application's upgrade callback, and replays
// any bytes that followed the response head.
func (h *upgradeHandler) switchProtocols(ctx *pipeline.Context, rest []byte) {
	h.done = true
	pipe := ctx.Pipeline()
	pipe.Remove(h)

	pipe.AddLast(session.NewFrameDecodeHandler(h.maxFrameSize))
	sess := session.New(session.RoleClient, pipe.Writer(), pipe.Loop(), h.log)
	pipe.AddLast(sess)

	h.log.Debug().Str("session", sess.ID().String()).Msg("protocol switch complete")
	if h.onUpgrade != nil {
		h.onUpgrade(sess)
	}
	h.promise.Complete()

	if len(rest) > 0 {
		pipe.FireRead(rest)
	}
}

// fail resolves the handshake promise with err and closes the connection.
// The promise is single-assignment, so a stage racing in later is a no-op.
func (h *upgradeHandler) fail(ctx *pipeline.Context, err error) {
	h.done = true
	h.log.Debug().Err(err).Msg("handshake failed")
	h.promise.Fail(err)
	_ = ctx.Close()
}
