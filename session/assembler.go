// File: session/assembler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// assembler accumulates the fragments of one logical message until the
// final fragment arrives. Text messages are decoded incrementally: a
// trailing incomplete UTF-8 sequence is carried across fragment
// boundaries, so a multi-byte character split between frames survives
// reassembly intact.

package session

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/momentics/wspipe/api"
	"github.com/momentics/wspipe/protocol"
)

// messageKind is fixed when the assembler is created.
type messageKind uint8

const (
	kindText messageKind = iota
	kindBinary
)

type assembler struct {
	kind messageKind

	binary bytes.Buffer
	text   strings.Builder
	carry  []byte // incomplete trailing UTF-8 sequence, at most 3 bytes
}

func newAssembler(kind messageKind) *assembler {
	return &assembler{kind: kind}
}

// append unmasks frame and accumulates its payload. For text sequences an
// undecodable byte sequence (one that no continuation could complete) is a
// protocol violation.
func (a *assembler) append(frame *protocol.Frame) error {
	payload := frame.UnmaskedPayload()
	if a.kind == kindBinary {
		a.binary.Write(payload)
		return nil
	}
	return a.appendText(payload)
}

func (a *assembler) appendText(chunk []byte) error {
	data := chunk
	if len(a.carry) > 0 {
		data = append(a.carry, chunk...)
		a.carry = nil
	}

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r != utf8.RuneError || size != 1 {
			a.text.WriteRune(r)
			data = data[size:]
			continue
		}
		// Either an incomplete trailing sequence, which the next fragment
		// may complete, or garbage that never will.
		if !utf8.FullRune(data) && len(data) < utf8.UTFMax {
			a.carry = append([]byte(nil), data...)
			return nil
		}
		return api.ErrProtocolViolation
	}
	return nil
}

// complete returns the finished message. A text message must not end in
// the middle of a multi-byte character.
func (a *assembler) complete() (text string, binary []byte, err error) {
	if a.kind == kindBinary {
		return "", a.binary.Bytes(), nil
	}
	if len(a.carry) > 0 {
		return "", nil, api.ErrProtocolViolation
	}
	return a.text.String(), nil, nil
}
