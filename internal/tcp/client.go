// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package tcp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
)

// Client is a thread-safe, connection-pooling TCP client. It dials the
// target address, completes the TLS handshake when TLS is configured,
// applies the ConnWrapper layers and keeps a LIFO pool of idle
// connections for reuse. Stale connections are evicted lazily on Get.
//
//	conn, err := client.Get(ctx)
//	if err != nil { ... }
//
//	if err := exchange(conn); err != nil {
//		client.Discard(conn)
//		return err
//	}
//
//	client.Put(conn)
//
// A connection obtained via Get is owned by the caller until returned
// with Put or Discard. It must not be used from multiple goroutines
// concurrently.
type Client struct {
	addr         string
	dialer       net.Dialer
	tlsConfig    *tls.Config
	connWrappers []ConnWrapper
	maxIdle      int
	idleTimeout  time.Duration

	mu     sync.Mutex
	idle   []idleConn
	closed atomic.Bool
}

type idleConn struct {
	conn  net.Conn
	since int64 // UnixNano
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a Client that connects to addr (host:port).
//
// Defaults: 8 max idle connections, 30 s idle timeout, 5 s dial timeout,
// 15 s TCP keep-alive.
func NewClient(addr string, opts ...ClientOption) *Client {
	c := &Client{
		addr:        addr,
		maxIdle:     8,
		idleTimeout: 30 * time.Second,
		dialer: net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 15 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	c.idle = make([]idleConn, 0, c.maxIdle)
	return c
}

// WithTLS configures the client to run a TLS handshake on every new
// connection.
func WithTLS(config *tls.Config) ClientOption {
	return func(c *Client) { c.tlsConfig = config }
}

// WithClientConnWrapper appends a ConnWrapper to the client's wrapping
// pipeline, applied after TLS.
func WithClientConnWrapper(w ConnWrapper) ClientOption {
	return func(c *Client) { c.connWrappers = append(c.connWrappers, w) }
}

// WithMaxIdleConns sets the maximum number of idle connections kept in
// the pool. Zero disables pooling.
func WithMaxIdleConns(n int) ClientOption {
	return func(c *Client) {
		if n < 0 {
			n = 0
		}
		c.maxIdle = n
	}
}

// WithIdleTimeout sets how long an idle connection stays in the pool
// before being evicted on the next Get.
func WithIdleTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.idleTimeout = d }
}

// WithKeepAlive sets the TCP keep-alive interval for new connections.
func WithKeepAlive(d time.Duration) ClientOption {
	return func(c *Client) { c.dialer.KeepAlive = d }
}

// WithDialTimeout bounds both the TCP connect and the TLS handshake of
// new connections.
func WithDialTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.dialer.Timeout = d }
}

// Addr returns the address the client dials.
func (c *Client) Addr() string {
	return c.addr
}

// IdleConns returns the number of pooled idle connections.
func (c *Client) IdleConns() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.idle)
}

// Get returns a pooled connection or dials a new one. The caller must
// call Put after a successful exchange or Discard on error.
func (c *Client) Get(ctx context.Context) (net.Conn, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	cutoff := time.Now().UnixNano() - c.idleTimeout.Nanoseconds()

	c.mu.Lock()
	for len(c.idle) > 0 {
		n := len(c.idle)
		ic := c.idle[n-1]
		c.idle[n-1] = idleConn{}
		c.idle = c.idle[:n-1]

		if ic.since < cutoff {
			c.mu.Unlock()
			_ = ic.conn.Close()
			c.mu.Lock()
			continue
		}

		c.mu.Unlock()
		return ic.conn, nil
	}
	c.mu.Unlock()

	return c.Dial(ctx)
}

// Put returns a healthy connection to the idle pool. If the pool is full
// the connection is closed. Any previously set deadlines are cleared.
func (c *Client) Put(conn net.Conn) {
	if c.closed.Load() {
		_ = conn.Close()
		return
	}

	if err := conn.SetDeadline(time.Time{}); err != nil {
		_ = conn.Close()
		return
	}

	c.mu.Lock()
	if len(c.idle) < c.maxIdle {
		c.idle = append(c.idle, idleConn{
			conn:  conn,
			since: time.Now().UnixNano(),
		})
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	_ = conn.Close()
}

// Discard closes a connection without returning it to the pool. Use this
// after a failed read or write.
func (c *Client) Discard(conn net.Conn) {
	_ = conn.Close()
}

// Close shuts down the client and closes all pooled connections. It is
// idempotent.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.mu.Lock()
	idle := c.idle
	c.idle = nil
	c.mu.Unlock()

	var err error
	for i := range idle {
		err = multierr.Append(err, idle[i].conn.Close())
	}
	return err
}

// Dial opens a new connection bypassing the pool. When TLS is configured
// the handshake completes before Dial returns; a failed handshake closes
// the socket and is reported wrapped in ErrHandshakeFailed.
func (c *Client) Dial(ctx context.Context) (net.Conn, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}

	if c.dialer.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.dialer.Timeout)
		defer cancel()
	}

	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, err
	}

	if c.tlsConfig != nil {
		tlsConn := tls.Client(conn, c.clientConfig())
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = tlsConn.Close()
			return nil, fmt.Errorf("%w: %w", ErrHandshakeFailed, err)
		}
		conn = tlsConn
	}

	for _, w := range c.connWrappers {
		wrapped, err := w.Wrap(conn)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		conn = wrapped
	}

	return conn, nil
}

// clientConfig fills in ServerName from the dialed host when it is unset
// and certificates are validated.
func (c *Client) clientConfig() *tls.Config {
	if c.tlsConfig.ServerName != "" || c.tlsConfig.InsecureSkipVerify {
		return c.tlsConfig
	}

	host, _, err := net.SplitHostPort(c.addr)
	if err != nil {
		return c.tlsConfig
	}

	config := c.tlsConfig.Clone()
	config.ServerName = host
	return config
}
