// File: api/transport.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Outbound transport abstraction seen by pipeline handlers and sessions.
// The concrete implementation lives in the transport package; fakes for
// testing live in fake/.

package api

// Writer is the outbound half of a connection.
type Writer interface {
	// Write queues p for transmission.
	Write(p []byte) error

	// WriteAndFlush writes p and forces it onto the wire.
	WriteAndFlush(p []byte) error

	// Close tears the connection down. Idempotent.
	Close() error
}
