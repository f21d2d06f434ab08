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
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"google.golang.org/protobuf/proto"

	"github.com/tochemey/tlsrpc/internal/tcp"
	"github.com/tochemey/tlsrpc/internal/wire"
	"github.com/tochemey/tlsrpc/log"
)

// Transport sends calls to one server over TLS connections. Connections
// are opened on demand, validated against the trust bundle and kept in a
// small pool once a call has completed. A Transport is safe for
// concurrent use.
//
// A Transport never retries. Retries belong to the Proxy.
type Transport struct {
	client     *tcp.Client
	path       string
	strict     bool
	logger     log.Logger
	serializer *wire.Serializer
	framePool  *wire.FramePool
	closed     atomic.Bool
}

// NewTransport creates a Transport from cfg. No connection is opened
// until the first call or an explicit Connect.
func NewTransport(cfg *ClientConfig) (*Transport, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: no client config", ErrInvalidURI)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("rpc: invalid client config: %w", err)
	}

	address, path, err := cfg.target()
	if err != nil {
		return nil, err
	}

	identity, err := cfg.secureConn()
	if err != nil {
		return nil, err
	}

	opts := []tcp.ClientOption{
		tcp.WithTLS(identity.SecureClient()),
		tcp.WithDialTimeout(cfg.connectTimeout),
		tcp.WithMaxIdleConns(cfg.maxIdleConns),
	}

	compressor, err := tcp.NewCompressionWrapper(cfg.compression)
	if err != nil {
		return nil, err
	}
	if compressor != nil {
		opts = append(opts, tcp.WithClientConnWrapper(compressor))
	}

	return &Transport{
		client:     tcp.NewClient(address, opts...),
		path:       path,
		strict:     cfg.strict,
		logger:     cfg.logger.With("server", address),
		serializer: wire.NewSerializer(),
		framePool:  wire.NewFramePool(),
	}, nil
}

// Address returns the host:port the transport dials.
func (t *Transport) Address() string {
	return t.client.Addr()
}

// Path returns the endpoint path sent with every call.
func (t *Transport) Path() string {
	return t.path
}

// Connect opens a new TLS connection to the server, bypassing the pool.
// The handshake, including the validation of the server certificate,
// completes before Connect returns. The caller owns the connection.
func (t *Transport) Connect(ctx context.Context) (net.Conn, error) {
	if t.closed.Load() {
		return nil, ErrTransportClosed
	}

	conn, err := t.client.Dial(ctx)
	if err != nil {
		t.logger.With("error", err).Warn("failed to connect")
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return conn, nil
}

// RoundTrip sends request to method and waits for the response. A status
// other than StatusOK is returned as an *Error. Context cancellation
// aborts the exchange and closes the connection in use.
func (t *Transport) RoundTrip(ctx context.Context, method string, request proto.Message) (proto.Message, error) {
	return t.exchange(ctx, method, request, false)
}

// Notify sends request to method without waiting for a response. It
// returns once the request is written.
func (t *Transport) Notify(ctx context.Context, method string, request proto.Message) error {
	_, err := t.exchange(ctx, method, request, true)
	return err
}

// Close releases the pooled connections. It is idempotent.
func (t *Transport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	return t.client.Close()
}

func (t *Transport) exchange(ctx context.Context, method string, request proto.Message, oneway bool) (proto.Message, error) {
	if t.closed.Load() {
		return nil, ErrTransportClosed
	}

	md := wire.NewMetadata()
	md.Set(wire.PathHeader, t.path)
	md.Set(wire.MethodHeader, method)
	if oneway {
		md.Set(wire.OnewayHeader, "1")
	}
	if deadline, ok := ctx.Deadline(); ok {
		md.SetDeadline(deadline)
	}

	frame, err := t.serializer.Marshal(request, md)
	if err != nil {
		return nil, err
	}

	conn, err := t.client.Get(ctx)
	if err != nil {
		if errors.Is(err, tcp.ErrClientClosed) {
			return nil, ErrTransportClosed
		}
		t.logger.With("error", err).Warn("failed to connect")
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			t.client.Discard(conn)
			return nil, err
		}
	}

	// unblock the read or write when the caller gives up
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})

	response, err := t.send(conn, frame, oneway)
	if !stop() {
		t.client.Discard(conn)
		return nil, ctx.Err()
	}

	var remote *Error
	switch {
	case err == nil, errors.As(err, &remote):
		t.client.Put(conn)
	default:
		t.client.Discard(conn)
	}
	return response, err
}

func (t *Transport) send(conn net.Conn, frame []byte, oneway bool) (proto.Message, error) {
	if err := wire.WriteFrame(conn, frame); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	if oneway {
		return nil, nil
	}

	// a server that rejects the client certificate closes the connection
	// right after the handshake, which surfaces here
	out, err := wire.ReadFrame(conn, t.framePool, wire.DefaultMaxFrameSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer t.framePool.Put(out)

	response, md, _, err := t.serializer.Unmarshal(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	status, ok := md.Get(wire.StatusHeader)
	if !ok {
		if t.strict {
			return nil, fmt.Errorf("%w: no status", ErrMalformedResponse)
		}
		return response, nil
	}

	if Status(status) != StatusOK {
		message, _ := md.Get(wire.ErrorHeader)
		return nil, &Error{Status: Status(status), Message: message}
	}

	return response, nil
}
