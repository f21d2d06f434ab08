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
	"crypto/x509/pkix"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/travisjeffery/go-dynaport"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/tochemey/tlsrpc/internal/testutil"
	"github.com/tochemey/tlsrpc/log"
)

// pki holds a test authority and the server identity it issued, written
// to a temporary directory.
type pki struct {
	root       *testutil.CertRoot
	dir        string
	bundle     string
	serverKey  string
	serverCert string
}

func newPKI(t *testing.T) *pki {
	t.Helper()
	root := testutil.NewCertRoot(t)
	dir := t.TempDir()
	serverKey, serverCert := root.Issue(t, pkix.Name{CommonName: "server", Organization: []string{"tlsrpc"}}).
		WriteFiles(t, dir, "server")

	return &pki{
		root:       root,
		dir:        dir,
		bundle:     root.WriteBundle(t, dir),
		serverKey:  serverKey,
		serverCert: serverCert,
	}
}

// client issues a client certificate with the given subject and returns
// the paths of its key and certificate.
func (x *pki) client(t *testing.T, name string, subject pkix.Name) (string, string) {
	t.Helper()
	return x.root.Issue(t, subject).WriteFiles(t, x.dir, name)
}

func (x *pki) serverConfig(t *testing.T, opts ...Option) *ServerConfig {
	t.Helper()
	ports := dynaport.Get(1)
	base := []Option{
		WithTrustBundle(x.bundle),
		WithIdentityFiles(x.serverKey, x.serverCert),
		WithLogger(log.DiscardLogger),
	}
	return NewServerConfig("127.0.0.1", ports[0], append(base, opts...)...)
}

// startServer starts a server serving echo and stops it when the test ends.
func (x *pki) startServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	server, err := NewServer(x.serverConfig(t, opts...))
	require.NoError(t, err)
	require.NoError(t, server.Register("echo", echo))
	require.NoError(t, server.Start(context.Background()))

	t.Cleanup(func() {
		require.NoError(t, server.Shutdown(time.Second))
	})
	return server
}

func (x *pki) transport(t *testing.T, server *Server, path string, opts ...ClientOption) *Transport {
	t.Helper()
	uri := fmt.Sprintf("tls://%s%s", server.ListenAddr().String(), path)
	base := []ClientOption{
		WithClientTrustBundle(x.bundle),
		WithClientLogger(log.DiscardLogger),
		WithConnectTimeout(3 * time.Second),
	}
	transport, err := NewTransport(NewClientConfig(uri, append(base, opts...)...))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, transport.Close())
	})
	return transport
}

func echo(_ context.Context, _ *Peer, request proto.Message) (proto.Message, error) {
	value, ok := request.(*wrapperspb.StringValue)
	if !ok {
		return nil, fmt.Errorf("unexpected request %T", request)
	}
	return wrapperspb.String(value.GetValue()), nil
}

func newMetricReader(t *testing.T) (*sdkmetric.ManualReader, Option) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return reader, WithMeter(provider.Meter("test"))
}

// counts returns the data points of a counter keyed by the value of attr.
func counts(t *testing.T, reader *sdkmetric.ManualReader, name, attr string) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]int64)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, point := range sum.DataPoints {
				value, _ := point.Attributes.Value(attribute.Key(attr))
				out[value.AsString()] = point.Value
			}
		}
	}
	return out
}
