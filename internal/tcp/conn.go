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
	"net"
	"time"

	"github.com/google/uuid"
)

// Connection is the interface presented to a RequestHandlerFunc for every
// accepted TCP connection. The default implementation is *TCPConn.
type Connection interface {
	net.Conn

	// ID returns the identifier assigned when the connection was accepted.
	ID() string
	// NetConn returns the connection as seen by the request handler,
	// including any wrapper added with Wrap.
	NetConn() net.Conn
	// TLS returns the TLS session of the connection, or nil when the
	// server is not running TLS.
	TLS() *tls.Conn
	// Handshake runs the TLS handshake if it has not completed yet.
	Handshake(ctx context.Context) error
	// Wrap layers w on top of the current connection.
	Wrap(w ConnWrapper) error
	// ServerAddr returns the local listen address as a *net.TCPAddr.
	ServerAddr() *net.TCPAddr
	// StartTime returns when the connection was started via Start.
	StartTime() time.Time

	// Start records the connection start time and assigns a new ID.
	Start()
	// Reset reinitialises the connection with a new underlying net.Conn.
	Reset(netConn net.Conn)
}

// TCPConn is the default Connection implementation backed by a net.Conn.
type TCPConn struct {
	net.Conn
	tlsConn *tls.Conn
	id      string
	ts      int64
}

var _ Connection = (*TCPConn)(nil)

// ID returns the identifier assigned by Start.
func (conn *TCPConn) ID() string {
	return conn.id
}

// ServerAddr returns the local listen address as a *net.TCPAddr,
// or nil if the underlying connection is not TCP.
func (conn *TCPConn) ServerAddr() *net.TCPAddr {
	addr, _ := conn.LocalAddr().(*net.TCPAddr)
	return addr
}

// StartTime returns the time recorded by Start.
func (conn *TCPConn) StartTime() time.Time {
	return time.Unix(0, conn.ts)
}

// NetConn returns the current net.Conn.
func (conn *TCPConn) NetConn() net.Conn {
	return conn.Conn
}

// TLS returns the TLS session, or nil on a plain connection.
func (conn *TCPConn) TLS() *tls.Conn {
	return conn.tlsConn
}

// Handshake runs the TLS handshake bounded by ctx. It returns ErrNotTLS
// on a plain connection and is a no-op once the handshake completed.
func (conn *TCPConn) Handshake(ctx context.Context) error {
	if conn.tlsConn == nil {
		return ErrNotTLS
	}
	return conn.tlsConn.HandshakeContext(ctx)
}

// Wrap layers w over the current connection. On failure the connection
// is left untouched.
func (conn *TCPConn) Wrap(w ConnWrapper) error {
	wrapped, err := w.Wrap(conn.Conn)
	if err != nil {
		return err
	}
	conn.Conn = wrapped
	return nil
}

// Reset reinitialises the connection with a new underlying net.Conn and
// clears its ID. When netConn is a *tls.Conn it is recorded as the
// TLS session of the connection.
func (conn *TCPConn) Reset(netConn net.Conn) {
	conn.Conn = netConn
	conn.tlsConn, _ = netConn.(*tls.Conn)
	conn.id = ""
}

// Start records the connection start time and assigns its ID.
func (conn *TCPConn) Start() {
	conn.ts = time.Now().UnixNano()
	conn.id = uuid.NewString()
}

// IsIPv6Addr reports whether addr is an IPv6 address.
func IsIPv6Addr(addr *net.TCPAddr) bool {
	return addr.IP.To4() == nil && len(addr.IP) == net.IPv6len
}
