// File: protocol/frame.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Frame is the unit exchanged between the streaming codec and the session
// layer. Payload is stored as received; UnmaskedPayload removes the mask
// exactly once and is what aggregation layers must consume.

package protocol

import "encoding/binary"

// Frame represents a decoded WebSocket frame.
type Frame struct {
	IsFinal bool // FIN bit
	Opcode  byte
	Masked  bool
	MaskKey [4]byte
	Payload []byte

	unmasked bool
}

// UnmaskedPayload returns the payload with any mask removed. The unmask is
// applied in place on first call.
func (f *Frame) UnmaskedPayload() []byte {
	if f.Masked && !f.unmasked {
		maskInPlace(f.Payload, f.MaskKey)
		f.unmasked = true
	}
	return f.Payload
}

// CloseCode decodes the close code carried in a close frame payload.
// A payload shorter than two bytes carries no decodable code; ok is false
// and callers fall back to CloseGoingAway.
func (f *Frame) CloseCode() (code uint16, ok bool) {
	p := f.UnmaskedPayload()
	if len(p) < 2 {
		return 0, false
	}
	return binary.BigEndian.Uint16(p[:2]), true
}

// ClosePayload builds the two-byte payload of a close frame for code.
func ClosePayload(code uint16) []byte {
	p := make([]byte, 2)
	binary.BigEndian.PutUint16(p, code)
	return p
}

// maskInPlace XORs buf with the rotating 4-byte key. Masking and unmasking
// are the same operation.
func maskInPlace(buf []byte, key [4]byte) {
	for i := range buf {
		buf[i] ^= key[i%4]
	}
}
