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

package rpc

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/tochemey/tlsrpc/verify"
)

type peerKey struct{}

// Peer describes the client at the other end of a server connection.
type Peer struct {
	id      string
	address net.Addr
	local   *net.TCPAddr
	fields  *verify.Fields
	state   tls.ConnectionState
	status  ConnState
}

// ID returns the identifier of the connection.
func (p *Peer) ID() string {
	return p.id
}

// Address returns the remote address.
func (p *Peer) Address() net.Addr {
	return p.address
}

// LocalAddress returns the server address the client connected to.
func (p *Peer) LocalAddress() *net.TCPAddr {
	return p.local
}

// Fields returns the subject fields of the client certificate, or nil
// when the client did not present one.
func (p *Peer) Fields() *verify.Fields {
	return p.fields
}

// ConnectionState returns the TLS session state.
func (p *Peer) ConnectionState() tls.ConnectionState {
	return p.state
}

// State returns the admission state of the connection.
func (p *Peer) State() ConnState {
	return p.status
}

// PeerFromContext returns the Peer of the connection serving the call.
func PeerFromContext(ctx context.Context) (*Peer, bool) {
	p, ok := ctx.Value(peerKey{}).(*Peer)
	return p, ok
}

func contextWithPeer(ctx context.Context, p *Peer) context.Context {
	return context.WithValue(ctx, peerKey{}, p)
}
