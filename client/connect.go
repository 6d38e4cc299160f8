// File: client/connect.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Connection-establishment orchestration: endpoint resolution, TCP dial,
// optional TLS, pipeline construction, HTTP Upgrade. Whichever stage fails
// first resolves the one outstanding promise; nothing resolves it twice.

package client

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/momentics/wspipe/api"
	"github.com/momentics/wspipe/concurrency"
	"github.com/momentics/wspipe/protocol"
	"github.com/momentics/wspipe/session"
	"github.com/momentics/wspipe/transport"
)

// endpoint is a resolved connect target.
type endpoint struct {
	scheme string
	host   string
	port   int
	path   string
}

func (e endpoint) secure() bool { return e.scheme == "wss" }

func (e endpoint) addr() string {
	return net.JoinHostPort(e.host, strconv.Itoa(e.port))
}

// hostHeader is the Host header value: the port is elided when it is the
// scheme default.
func (e endpoint) hostHeader() string {
	if (e.scheme == "ws" && e.port == 80) || (e.scheme == "wss" && e.port == 443) {
		return e.host
	}
	return e.addr()
}

// resolveURL parses rawURL into an endpoint, applying the scheme, port and
// path defaults.
func resolveURL(rawURL string) (endpoint, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return endpoint{}, fmt.Errorf("%w: %v", api.ErrInvalidURL, err)
	}
	return resolveEndpoint(u.Scheme, u.Hostname(), portOf(u), u.RequestURI())
}

func portOf(u *url.URL) int {
	p, err := strconv.Atoi(u.Port())
	if err != nil {
		return 0
	}
	return p
}

// resolveEndpoint applies defaults: scheme ws, port 80/443 by scheme,
// path "/".
func resolveEndpoint(scheme, host string, port int, path string) (endpoint, error) {
	if scheme == "" {
		scheme = "ws"
	}
	if scheme != "ws" && scheme != "wss" {
		return endpoint{}, fmt.Errorf("%w: scheme %q", api.ErrInvalidURL, scheme)
	}
	if host == "" {
		return endpoint{}, fmt.Errorf("%w: missing host", api.ErrInvalidURL)
	}
	if port == 0 {
		port = 80
		if scheme == "wss" {
			port = 443
		}
	}
	if path == "" {
		path = "/"
	}
	return endpoint{scheme: scheme, host: host, port: port, path: path}, nil
}

// Connect dials rawURL and, on a successful upgrade, hands the new Session
// to onUpgrade. The returned promise resolves once: nil after onUpgrade
// has been invoked, or the first failure of any stage.
func (c *Client) Connect(rawURL string, onUpgrade func(*session.Session)) *concurrency.Promise {
	p := concurrency.NewPromise(nil)
	ep, err := resolveURL(rawURL)
	if err != nil {
		p.Fail(err)
		return p
	}
	c.connect(ep, onUpgrade, p)
	return p
}

// ConnectEndpoint dials an explicit scheme/host/port/path target, applying
// the same defaults as Connect.
func (c *Client) ConnectEndpoint(scheme, host string, port int, path string, onUpgrade func(*session.Session)) *concurrency.Promise {
	p := concurrency.NewPromise(nil)
	ep, err := resolveEndpoint(scheme, host, port, path)
	if err != nil {
		p.Fail(err)
		return p
	}
	c.connect(ep, onUpgrade, p)
	return p
}

func (c *Client) connect(ep endpoint, onUpgrade func(*session.Session), p *concurrency.Promise) {
	if c.isDown() {
		p.Fail(api.ErrAlreadyShutDown)
		return
	}
	loop, err := c.pool.Next()
	if err != nil {
		p.Fail(err)
		return
	}

	// Dial and TLS block, so they run off the caller and off the loop; the
	// pipeline is only touched from the loop once the stream is ready.
	go func() {
		ctx := context.Background()
		if c.cfg.DialTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.cfg.DialTimeout)
			defer cancel()
		}

		var d net.Dialer
		raw, err := d.DialContext(ctx, "tcp", ep.addr())
		if err != nil {
			p.Fail(fmt.Errorf("connect %s: %w", ep.addr(), err))
			return
		}
		if ep.secure() {
			raw, err = transport.WrapClientTLS(ctx, raw, ep.host, c.cfg.TLSConfig)
			if err != nil {
				p.Fail(err)
				return
			}
		}

		key, err := protocol.GenerateKey()
		if err != nil {
			raw.Close()
			p.Fail(err)
			return
		}

		conn := transport.NewConn(raw, loop)
		up := &upgradeHandler{
			host:         ep.hostHeader(),
			path:         ep.path,
			key:          key,
			extra:        c.cfg.Header,
			maxFrameSize: c.maxFrameSize(),
			promise:      p,
			onUpgrade:    onUpgrade,
			log:          c.log,
		}
		loop.Execute(func() {
			conn.Pipeline().AddLast(up)
			conn.Start()
		})
	}()
}
