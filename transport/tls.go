// File: transport/tls.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Client-side TLS layering. The handshake is driven to completion before
// the connection is handed to the pipeline, so upgrade traffic only ever
// travels over an established secure channel.

package transport

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
)

// WrapClientTLS layers a client TLS session over raw for serverName and
// completes the handshake. cfg may be nil; a default config is cloned and
// the server name filled in either way.
func WrapClientTLS(ctx context.Context, raw net.Conn, serverName string, cfg *tls.Config) (net.Conn, error) {
	if cfg == nil {
		cfg = &tls.Config{}
	} else {
		cfg = cfg.Clone()
	}
	if cfg.ServerName == "" {
		cfg.ServerName = serverName
	}
	tlsConn := tls.Client(raw, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		raw.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}
	return tlsConn, nil
}
