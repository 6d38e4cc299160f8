// File: session/decoder.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// FrameDecodeHandler turns the raw post-upgrade byte stream into protocol
// frames for the session behind it. It is installed the moment the HTTP
// protocol switch completes and stays for the life of the connection.

package session

import (
	"github.com/momentics/wspipe/pipeline"
	"github.com/momentics/wspipe/protocol"
)

// FrameDecodeHandler adapts the streaming frame codec to the pipeline.
type FrameDecodeHandler struct {
	pipeline.BaseHandler
	dec *protocol.Decoder
}

// NewFrameDecodeHandler creates a decode stage enforcing maxFrameSize.
func NewFrameDecodeHandler(maxFrameSize int) *FrameDecodeHandler {
	return &FrameDecodeHandler{dec: protocol.NewDecoder(maxFrameSize)}
}

// Read decodes raw chunks into frames. Frames completed before a decode
// failure are still delivered; the failure follows them down the chain.
func (h *FrameDecodeHandler) Read(ctx *pipeline.Context, msg any) {
	chunk, ok := msg.([]byte)
	if !ok {
		ctx.FireRead(msg)
		return
	}
	frames, err := h.dec.Decode(chunk)
	for _, frame := range frames {
		ctx.FireRead(frame)
	}
	if err != nil {
		ctx.FireError(err)
	}
}
