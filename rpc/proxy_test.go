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
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// flakyTransport fails the first failures calls with err.
type flakyTransport struct {
	calls    atomic.Int32
	failures int32
	err      error
	closed   atomic.Bool
}

func (x *flakyTransport) RoundTrip(_ context.Context, _ string, request proto.Message) (proto.Message, error) {
	if x.calls.Add(1) <= x.failures {
		return nil, x.err
	}
	return request, nil
}

func (x *flakyTransport) Close() error {
	x.closed.Store(true)
	return nil
}

func TestProxy(t *testing.T) {
	keys := newPKI(t)
	server := keys.startServer(t)

	uri := fmt.Sprintf("tls://%s/RPC2", server.ListenAddr().String())
	proxy, err := NewProxy(NewClientConfig(uri, WithClientTrustBundle(keys.bundle), WithClientLogger(server.logger)))
	require.NoError(t, err)

	response, err := proxy.Call(context.Background(), "echo", wrapperspb.String("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", response.(*wrapperspb.StringValue).GetValue())

	_, err = proxy.Call(context.Background(), "missing", wrapperspb.String("hello"))
	var remote *Error
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, StatusUnimplemented, remote.Status)

	require.NoError(t, proxy.Close())
}

func TestNewProxyWithInvalidConfig(t *testing.T) {
	proxy, err := NewProxy(NewClientConfig("ftp://127.0.0.1:21"))
	require.Error(t, err)
	require.Nil(t, proxy)
}

func TestProxyRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("retries connection failures", func(t *testing.T) {
		transport := &flakyTransport{failures: 2, err: ErrConnectionFailed}
		proxy, err := NewProxy(nil, WithTransport(transport), WithRetry(3, time.Millisecond, 5*time.Millisecond))
		require.NoError(t, err)

		response, err := proxy.Call(ctx, "echo", wrapperspb.String("hello"))
		require.NoError(t, err)
		assert.Equal(t, "hello", response.(*wrapperspb.StringValue).GetValue())
		assert.EqualValues(t, 3, transport.calls.Load())
	})
	t.Run("gives up after max tries", func(t *testing.T) {
		transport := &flakyTransport{failures: 10, err: ErrConnectionFailed}
		proxy, err := NewProxy(nil, WithTransport(transport), WithRetry(3, time.Millisecond, 5*time.Millisecond))
		require.NoError(t, err)

		_, err = proxy.Call(ctx, "echo", wrapperspb.String("hello"))
		require.Error(t, err)
		assert.EqualValues(t, 3, transport.calls.Load())
	})
	t.Run("does not retry remote errors", func(t *testing.T) {
		transport := &flakyTransport{failures: 10, err: &Error{Status: StatusError, Message: "boom"}}
		proxy, err := NewProxy(nil, WithTransport(transport), WithRetry(3, time.Millisecond, 5*time.Millisecond))
		require.NoError(t, err)

		_, err = proxy.Call(ctx, "echo", wrapperspb.String("hello"))
		require.True(t, IsRemoteError(err))
		assert.EqualValues(t, 1, transport.calls.Load())
	})
	t.Run("does not retry by default", func(t *testing.T) {
		transport := &flakyTransport{failures: 1, err: ErrConnectionFailed}
		proxy, err := NewProxy(nil, WithTransport(transport))
		require.NoError(t, err)

		_, err = proxy.Call(ctx, "echo", wrapperspb.String("hello"))
		require.ErrorIs(t, err, ErrConnectionFailed)
		assert.EqualValues(t, 1, transport.calls.Load())

		require.NoError(t, proxy.Close())
		assert.True(t, transport.closed.Load())
	})
}
