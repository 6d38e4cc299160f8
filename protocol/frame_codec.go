// File: protocol/frame_codec.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Streaming WebSocket frame codec with frame size enforcement. The decoder
// accumulates raw stream chunks and yields complete frames; the encoder
// applies the role-dependent masking policy, generating a fresh random mask
// key per client frame as RFC6455 requires.

package protocol

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/momentics/wspipe/api"
)

// Decoder reassembles WebSocket frames from a byte stream.
type Decoder struct {
	maxFrameSize int
	buf          []byte
}

// NewDecoder returns a Decoder enforcing maxFrameSize per frame payload.
// Zero or negative means DefaultMaxFrameSize.
func NewDecoder(maxFrameSize int) *Decoder {
	if maxFrameSize <= 0 {
		maxFrameSize = DefaultMaxFrameSize
	}
	return &Decoder{maxFrameSize: maxFrameSize}
}

// Decode appends chunk to the internal buffer and returns every frame that
// is now complete, in stream order. A partial trailing frame stays buffered
// until the next chunk.
func (d *Decoder) Decode(chunk []byte) ([]*Frame, error) {
	d.buf = append(d.buf, chunk...)

	var frames []*Frame
	for {
		frame, consumed, err := d.next()
		if err != nil {
			return frames, err
		}
		if frame == nil {
			return frames, nil
		}
		d.buf = d.buf[consumed:]
		frames = append(frames, frame)
	}
}

// next parses one frame from the head of the buffer. Returns (nil, 0, nil)
// when the buffer holds only a partial frame.
func (d *Decoder) next() (*Frame, int, error) {
	raw := d.buf
	if len(raw) < 2 {
		return nil, 0, nil
	}
	fin := raw[0]&FinBit != 0
	opcode := raw[0] & 0x0F
	masked := raw[1]&MaskBit != 0
	length := uint64(raw[1] & 0x7F)
	offset := 2

	switch length {
	case 126:
		if len(raw) < offset+2 {
			return nil, 0, nil
		}
		length = uint64(binary.BigEndian.Uint16(raw[offset:]))
		offset += 2
	case 127:
		if len(raw) < offset+8 {
			return nil, 0, nil
		}
		length = binary.BigEndian.Uint64(raw[offset:])
		offset += 8
	}

	if IsControl(opcode) && length > MaxControlPayloadLen {
		return nil, 0, fmt.Errorf("%w: control frame payload %d exceeds %d bytes",
			api.ErrProtocolViolation, length, MaxControlPayloadLen)
	}
	// Unsigned compare, so a 64-bit length with the sign bit set is rejected
	// here instead of reaching the allocation below.
	if length > uint64(d.maxFrameSize) {
		return nil, 0, fmt.Errorf("%w: %d > %d", api.ErrFrameTooLarge, length, d.maxFrameSize)
	}

	var maskKey [4]byte
	if masked {
		if len(raw) < offset+4 {
			return nil, 0, nil
		}
		copy(maskKey[:], raw[offset:offset+4])
		offset += 4
	}

	if uint64(len(raw)-offset) < length {
		return nil, 0, nil
	}

	payload := make([]byte, length)
	copy(payload, raw[offset:offset+int(length)])

	return &Frame{
		IsFinal: fin,
		Opcode:  opcode,
		Masked:  masked,
		MaskKey: maskKey,
		Payload: payload,
	}, offset + int(length), nil
}

// EncodeFrame serializes one frame. When mask is true a fresh random 4-byte
// key is generated and applied; the input payload is not modified.
func EncodeFrame(opcode byte, payload []byte, fin, mask bool) ([]byte, error) {
	b0 := opcode & 0x0F
	if fin {
		b0 |= FinBit
	}

	var maskBit byte
	if mask {
		maskBit = MaskBit
	}

	plen := len(payload)
	hdr := make([]byte, 2, MaxFrameHeaderLen)
	hdr[0] = b0
	switch {
	case plen <= 125:
		hdr[1] = byte(plen) | maskBit
	case plen <= 0xFFFF:
		hdr[1] = 126 | maskBit
		hdr = binary.BigEndian.AppendUint16(hdr, uint16(plen))
	default:
		hdr[1] = 127 | maskBit
		hdr = binary.BigEndian.AppendUint64(hdr, uint64(plen))
	}

	if !mask {
		buf := make([]byte, len(hdr)+plen)
		copy(buf, hdr)
		copy(buf[len(hdr):], payload)
		return buf, nil
	}

	var key [4]byte
	if _, err := rand.Read(key[:]); err != nil {
		return nil, fmt.Errorf("mask key generation: %w", err)
	}
	buf := make([]byte, len(hdr)+4+plen)
	copy(buf, hdr)
	copy(buf[len(hdr):], key[:])
	body := buf[len(hdr)+4:]
	copy(body, payload)
	maskInPlace(body, key)
	return buf, nil
}
