// File: api/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Common error values shared across the wspipe library.

package api

import "fmt"

// Sentinel errors used across the library.
var (
	// ErrInvalidURL reports a connect target that cannot be resolved into
	// scheme, host, port and path.
	ErrInvalidURL = fmt.Errorf("invalid websocket URL")

	// ErrAlreadyShutDown reports use of a client or loop pool after its
	// one-shot shutdown has completed.
	ErrAlreadyShutDown = fmt.Errorf("already shut down")

	// ErrProtocolViolation reports malformed framing observed on an
	// established session: continuation misuse, fragmented control frames,
	// or an undecodable close payload.
	ErrProtocolViolation = fmt.Errorf("websocket protocol violation")

	// ErrTransportClosed reports I/O attempted on a closed transport.
	ErrTransportClosed = fmt.Errorf("transport is closed")

	// ErrFrameTooLarge reports an inbound frame whose payload exceeds the
	// configured maximum frame size.
	ErrFrameTooLarge = fmt.Errorf("frame payload exceeds maximum allowed size")
)
