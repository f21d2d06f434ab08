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
	"time"

	"github.com/flowchartsman/retry"
	"google.golang.org/protobuf/proto"
)

// RoundTripper sends one call and waits for its response.
type RoundTripper interface {
	RoundTrip(ctx context.Context, method string, request proto.Message) (proto.Message, error)
	Close() error
}

var _ RoundTripper = (*Transport)(nil)

// ProxyOption configures a Proxy.
type ProxyOption func(*Proxy)

// WithTransport makes the proxy send calls through rt instead of a
// Transport built from the client config.
func WithTransport(rt RoundTripper) ProxyOption {
	return func(p *Proxy) {
		p.transport = rt
	}
}

// WithRetry retries calls that fail before reaching the server, up to
// maxTries attempts with an exponential backoff between initialDelay and
// maxDelay. Calls answered by the server with an error are not retried.
func WithRetry(maxTries int, initialDelay, maxDelay time.Duration) ProxyOption {
	return func(p *Proxy) {
		p.maxTries = maxTries
		p.initialDelay = initialDelay
		p.maxDelay = maxDelay
	}
}

// Proxy invokes remote methods on a Server.
//
//	proxy, err := rpc.NewProxy(rpc.NewClientConfig("tls://127.0.0.1:8443/RPC2",
//		rpc.WithClientTrustBundle("ca.pem"),
//		rpc.WithClientIdentityFiles("client.key", "client.pem")))
//	if err != nil { ... }
//	defer proxy.Close()
//
//	reply, err := proxy.Call(ctx, "echo", wrapperspb.String("hello"))
type Proxy struct {
	transport    RoundTripper
	maxTries     int
	initialDelay time.Duration
	maxDelay     time.Duration
}

// NewProxy creates a Proxy. The config is ignored when WithTransport is
// given.
func NewProxy(cfg *ClientConfig, opts ...ProxyOption) (*Proxy, error) {
	proxy := &Proxy{maxTries: 1}
	for _, opt := range opts {
		opt(proxy)
	}

	if proxy.transport == nil {
		transport, err := NewTransport(cfg)
		if err != nil {
			return nil, err
		}
		proxy.transport = transport
	}

	return proxy, nil
}

// Call invokes method with request. A failure reported by the server is
// returned as an *Error.
func (p *Proxy) Call(ctx context.Context, method string, request proto.Message) (proto.Message, error) {
	if p.maxTries <= 1 {
		return p.transport.RoundTrip(ctx, method, request)
	}

	var (
		response proto.Message
		settled  error
	)

	retrier := retry.NewRetrier(p.maxTries, p.initialDelay, p.maxDelay)
	err := retrier.RunContext(ctx, func(ctx context.Context) error {
		var err error
		response, err = p.transport.RoundTrip(ctx, method, request)
		if IsRemoteError(err) || errors.Is(err, ErrTransportClosed) {
			// the call is settled, stop retrying
			settled = err
			return nil
		}
		return err
	})

	if settled != nil {
		return nil, settled
	}
	if err != nil {
		return nil, err
	}
	return response, nil
}

// Close closes the underlying transport.
func (p *Proxy) Close() error {
	return p.transport.Close()
}
