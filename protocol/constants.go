// File: protocol/constants.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// WebSocket wire protocol constants per RFC6455.

package protocol

// Frame opcodes.
const (
	OpcodeContinuation byte = 0x0
	OpcodeText         byte = 0x1
	OpcodeBinary       byte = 0x2
	OpcodeClose        byte = 0x8
	OpcodePing         byte = 0x9
	OpcodePong         byte = 0xA
)

// Frame limit settings.
const (
	// DefaultMaxFrameSize bounds a single inbound frame payload.
	DefaultMaxFrameSize = 16384

	MaxControlPayloadLen = 125
	MaxFrameHeaderLen    = 14 // extended payload length plus mask key
)

// Bit masks for the first two header bytes.
const (
	FinBit  = 0x80
	MaskBit = 0x80
)

// Close codes.
const (
	CloseNormalClosure      uint16 = 1000
	CloseGoingAway          uint16 = 1001
	CloseProtocolError      uint16 = 1002
	CloseUnsupportedData    uint16 = 1003
	CloseNoStatusRcvd       uint16 = 1005
	CloseAbnormalClosure    uint16 = 1006
	CloseInvalidPayloadData uint16 = 1007
	ClosePolicyViolation    uint16 = 1008
	CloseMessageTooBig      uint16 = 1009
	CloseMissingExtension   uint16 = 1010
	CloseInternalServerErr  uint16 = 1011
)

// IsControl reports whether op is a control opcode.
func IsControl(op byte) bool {
	return op >= 0x8
}

// IsData reports whether op starts a data message.
func IsData(op byte) bool {
	return op == OpcodeText || op == OpcodeBinary
}
