// File: client/client.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Client establishes WebSocket connections and hands the resulting
// sessions to application callbacks. It either creates its own event loop
// pool or borrows a shared one; only a self-created pool is shut down by
// Close, keyed off the ownership flag, and shutdown is one-shot.

package client

import (
	"crypto/tls"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/wspipe/api"
	"github.com/momentics/wspipe/concurrency"
)

// Config holds all configurable parameters for the WebSocket client.
type Config struct {
	TLSConfig    *tls.Config   // used for wss targets; nil means defaults
	MaxFrameSize int           // inbound frame payload limit (0 = 16384)
	Header       http.Header   // extra headers for the upgrade request
	DialTimeout  time.Duration // TCP connect deadline (0 = no deadline)
	Loops        int           // loops in a self-created pool (0 = NumCPU)
	PinLoops     bool          // pin self-created loops to CPUs
	Logger       zerolog.Logger
}

// Client dials WebSocket endpoints over a loop pool.
type Client struct {
	cfg      Config
	pool     *concurrency.LoopPool
	ownsPool bool
	down     atomic.Bool
	log      zerolog.Logger
}

// New creates a Client with its own loop pool. The pool is shut down by
// Close.
func New(cfg Config) *Client {
	return &Client{
		cfg:      cfg,
		pool:     concurrency.NewLoopPool(cfg.Loops, cfg.PinLoops),
		ownsPool: true,
		log:      cfg.Logger,
	}
}

// NewWithPool creates a Client on a shared pool. Close leaves the pool
// running; its owner shuts it down.
func NewWithPool(cfg Config, pool *concurrency.LoopPool) *Client {
	return &Client{
		cfg:  cfg,
		pool: pool,
		log:  cfg.Logger,
	}
}

// Close shuts the client down exactly once. A self-created pool is stopped
// here; a borrowed pool is left alone. The second call reports
// api.ErrAlreadyShutDown.
func (c *Client) Close() error {
	if !c.down.CompareAndSwap(false, true) {
		return api.ErrAlreadyShutDown
	}
	if c.ownsPool {
		return c.pool.Shutdown()
	}
	return nil
}

// isDown reports whether this client, or the pool beneath it, is gone.
func (c *Client) isDown() bool {
	return c.down.Load() || c.pool.IsShutDown()
}

func (c *Client) maxFrameSize() int {
	return c.cfg.MaxFrameSize
}
