// File: protocol/handshake.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Client-side RFC6455 HTTP Upgrade handshake primitives: Sec-WebSocket-Key
// generation, Sec-WebSocket-Accept computation, upgrade request
// serialization and 101 response validation. Header (de)serialization is
// delegated to net/http.

package protocol

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// Constants used for handshake processing.
const (
	WebSocketGUID            = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"
	HeaderConnection         = "Connection"
	HeaderUpgrade            = "Upgrade"
	HeaderSecWebSocketKey    = "Sec-WebSocket-Key"
	HeaderSecWebSocketAccept = "Sec-WebSocket-Accept"
	HeaderSecWebSocketVer    = "Sec-WebSocket-Version"
	RequiredWebSocketVersion = "13"
)

// Errors for handshake validation.
var (
	ErrInvalidUpgradeHeaders = fmt.Errorf("invalid WebSocket upgrade headers")
	ErrBadAcceptKey          = fmt.Errorf("Sec-WebSocket-Accept mismatch")
)

// GenerateKey returns a fresh base64-encoded 16-byte Sec-WebSocket-Key.
func GenerateKey() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("handshake key generation: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// AcceptKey computes the Sec-WebSocket-Accept value for key per RFC6455.
func AcceptKey(key string) string {
	h := sha1.New()
	h.Write([]byte(key + WebSocketGUID))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// BuildUpgradeRequest serializes the HTTP GET Upgrade request for path on
// host, carrying key and any extra caller headers.
func BuildUpgradeRequest(host, path, key string, extra http.Header) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "GET %s HTTP/1.1\r\n", path)
	fmt.Fprintf(&b, "Host: %s\r\n", host)
	fmt.Fprintf(&b, "%s: websocket\r\n", HeaderUpgrade)
	fmt.Fprintf(&b, "%s: Upgrade\r\n", HeaderConnection)
	fmt.Fprintf(&b, "%s: %s\r\n", HeaderSecWebSocketKey, key)
	fmt.Fprintf(&b, "%s: %s\r\n", HeaderSecWebSocketVer, RequiredWebSocketVersion)
	fmt.Fprintf(&b, "Content-Length: 0\r\n")
	for k, vs := range extra {
		for _, v := range vs {
			fmt.Fprintf(&b, "%s: %s\r\n", k, v)
		}
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}

// ValidateUpgradeResponse checks a 101 Switching Protocols response head
// against the key sent in the request.
func ValidateUpgradeResponse(resp *http.Response, key string) error {
	if !headerContainsToken(resp.Header, HeaderConnection, "Upgrade") ||
		!headerContainsToken(resp.Header, HeaderUpgrade, "websocket") {
		return ErrInvalidUpgradeHeaders
	}
	if resp.Header.Get(HeaderSecWebSocketAccept) != AcceptKey(key) {
		return ErrBadAcceptKey
	}
	return nil
}

// headerContainsToken checks if headerName contains the given token
// (case-insensitive).
func headerContainsToken(h http.Header, headerName, token string) bool {
	vals := h[http.CanonicalHeaderKey(headerName)]
	token = strings.ToLower(token)
	for _, v := range vals {
		for _, part := range strings.Split(v, ",") {
			if strings.ToLower(strings.TrimSpace(part)) == token {
				return true
			}
		}
	}
	return false
}
