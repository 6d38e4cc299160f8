// File: session/assembler_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package session

import (
	"bytes"
	"errors"
	"testing"

	"github.com/momentics/wspipe/api"
	"github.com/momentics/wspipe/protocol"
)

func frame(opcode byte, payload []byte, fin bool) *protocol.Frame {
	return &protocol.Frame{IsFinal: fin, Opcode: opcode, Payload: payload}
}

func TestBinaryFragmentsConcatenateInOrder(t *testing.T) {
	a := newAssembler(kindBinary)
	parts := [][]byte{{1, 2, 3, 4}, {5, 6, 7, 8}, {9, 10}}
	for i, p := range parts {
		op := protocol.OpcodeContinuation
		if i == 0 {
			op = protocol.OpcodeBinary
		}
		if err := a.append(frame(op, p, i == len(parts)-1)); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	_, bin, err := a.complete()
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !bytes.Equal(bin, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}) {
		t.Fatalf("concat = %v", bin)
	}
}

func TestTextRuneSplitAcrossFragmentsSurvives(t *testing.T) {
	// "héllo" with the two-byte é split between fragments.
	full := []byte("héllo")
	a := newAssembler(kindText)
	if err := a.append(frame(protocol.OpcodeText, full[:2], false)); err != nil {
		t.Fatalf("first fragment: %v", err)
	}
	if err := a.append(frame(protocol.OpcodeContinuation, full[2:], true)); err != nil {
		t.Fatalf("second fragment: %v", err)
	}
	text, _, err := a.complete()
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if text != "héllo" {
		t.Fatalf("text = %q", text)
	}
}

func TestTextFourByteRuneSplitThreeWays(t *testing.T) {
	full := []byte("a\U0001F600b") // emoji is 4 bytes
	a := newAssembler(kindText)
	if err := a.append(frame(protocol.OpcodeText, full[:2], false)); err != nil {
		t.Fatalf("fragment 1: %v", err)
	}
	if err := a.append(frame(protocol.OpcodeContinuation, full[2:4], false)); err != nil {
		t.Fatalf("fragment 2: %v", err)
	}
	if err := a.append(frame(protocol.OpcodeContinuation, full[4:], true)); err != nil {
		t.Fatalf("fragment 3: %v", err)
	}
	text, _, err := a.complete()
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if text != "a\U0001F600b" {
		t.Fatalf("text = %q", text)
	}
}

func TestTextInvalidByteIsViolation(t *testing.T) {
	a := newAssembler(kindText)
	err := a.append(frame(protocol.OpcodeText, []byte{'a', 0xFF, 'b'}, true))
	if !errors.Is(err, api.ErrProtocolViolation) {
		t.Fatalf("expected protocol violation, got %v", err)
	}
}

func TestTextDanglingPartialRuneAtEndIsViolation(t *testing.T) {
	a := newAssembler(kindText)
	if err := a.append(frame(protocol.OpcodeText, []byte{0xE4, 0xB8}, true)); err != nil {
		t.Fatalf("incomplete tail must be held, not rejected: %v", err)
	}
	if _, _, err := a.complete(); !errors.Is(err, api.ErrProtocolViolation) {
		t.Fatalf("expected protocol violation on dangling rune, got %v", err)
	}
}

func TestMaskedFragmentIsUnmaskedBeforeAggregation(t *testing.T) {
	payload := []byte("masked text")
	key := [4]byte{0x11, 0x22, 0x33, 0x44}
	masked := make([]byte, len(payload))
	for i := range payload {
		masked[i] = payload[i] ^ key[i%4]
	}
	f := &protocol.Frame{IsFinal: true, Opcode: protocol.OpcodeText, Masked: true, MaskKey: key, Payload: masked}

	a := newAssembler(kindText)
	if err := a.append(f); err != nil {
		t.Fatalf("append: %v", err)
	}
	text, _, err := a.complete()
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if text != "masked text" {
		t.Fatalf("text = %q", text)
	}
}
