// File: fake/writer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fake implementations for testing and development. Writer records every
// buffer handed to the outbound transport half and offers controllable
// failure injection.

package fake

import (
	"sync"

	"github.com/momentics/wspipe/api"
)

// Writer is a fake api.Writer for testing.
type Writer struct {
	mu         sync.Mutex
	written    [][]byte
	closed     bool
	closeCount int
	writeError error
}

// NewWriter creates a fake writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write implements api.Writer.
func (w *Writer) Write(p []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return api.ErrTransportClosed
	}
	if w.writeError != nil {
		return w.writeError
	}
	buf := make([]byte, len(p))
	copy(buf, p)
	w.written = append(w.written, buf)
	return nil
}

// WriteAndFlush implements api.Writer.
func (w *Writer) WriteAndFlush(p []byte) error {
	return w.Write(p)
}

// Close implements api.Writer.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.closeCount++
	return nil
}

// SetWriteError configures the writer to fail every Write.
func (w *Writer) SetWriteError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writeError = err
}

// Written returns a copy of every buffer written so far.
func (w *Writer) Written() [][]byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([][]byte, len(w.written))
	copy(out, w.written)
	return out
}

// Closed reports whether Close has been called.
func (w *Writer) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// CloseCount returns how many times Close has been called.
func (w *Writer) CloseCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeCount
}
