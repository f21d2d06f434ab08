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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/tlsrpc/internal/tcp"
	"github.com/tochemey/tlsrpc/secureconn"
)

func TestClientConfigTarget(t *testing.T) {
	testCases := []struct {
		name    string
		uri     string
		address string
		path    string
		err     bool
	}{
		{name: "tls scheme without path", uri: "tls://127.0.0.1:8443", address: "127.0.0.1:8443", path: "/"},
		{name: "https scheme with path", uri: "https://localhost:9000/RPC2", address: "localhost:9000", path: "/RPC2"},
		{name: "ipv6 host", uri: "tls://[::1]:7000/", address: "[::1]:7000", path: "/"},
		{name: "plain http", uri: "http://127.0.0.1:80/", err: true},
		{name: "missing port", uri: "tls://127.0.0.1/", err: true},
		{name: "missing host", uri: "tls://:80/", err: true},
		{name: "garbage", uri: "::not a uri", err: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			address, path, err := NewClientConfig(tc.uri).target()
			if tc.err {
				require.ErrorIs(t, err, ErrInvalidURI)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.address, address)
			assert.Equal(t, tc.path, path)
		})
	}
}

func TestClientConfigDefaults(t *testing.T) {
	config := NewClientConfig("tls://127.0.0.1:8443")
	assert.Equal(t, "tls://127.0.0.1:8443", config.URI())
	assert.Equal(t, 10*time.Second, config.ConnectTimeout())
	assert.False(t, config.Strict())
	assert.Equal(t, secureconn.ClientAuthOptional, config.clientAuth)
	assert.Equal(t, tcp.NoCompression, config.compression)
	assert.Equal(t, 8, config.maxIdleConns)
}

func TestClientConfigValidate(t *testing.T) {
	keys := newPKI(t)
	uri := "tls://127.0.0.1:8443/"

	t.Run("valid", func(t *testing.T) {
		config := NewClientConfig(uri,
			WithClientTrustBundle(keys.bundle),
			WithClientIdentityFiles(keys.serverKey, keys.serverCert),
			WithStrict(true),
			WithClientProtocolVersion("TLSv1.3"))
		require.NoError(t, config.Validate())
		assert.True(t, config.Strict())
	})
	t.Run("no validation needs no bundle", func(t *testing.T) {
		config := NewClientConfig(uri, WithClientAuthMode(secureconn.ClientAuthNone))
		require.NoError(t, config.Validate())
	})
	t.Run("invalid", func(t *testing.T) {
		testCases := map[string]*ClientConfig{
			"missing bundle":      NewClientConfig(uri),
			"missing file":        NewClientConfig(uri, WithClientTrustBundle(filepath.Join(t.TempDir(), "nope.pem"))),
			"key without cert":    NewClientConfig(uri, WithClientTrustBundle(keys.bundle), WithClientIdentityFiles(keys.serverKey, "")),
			"zero timeout":        NewClientConfig(uri, WithClientTrustBundle(keys.bundle), WithConnectTimeout(0)),
			"negative idle conns": NewClientConfig(uri, WithClientTrustBundle(keys.bundle), WithMaxIdleConns(-1)),
			"bad uri":             NewClientConfig("udp://127.0.0.1:1", WithClientTrustBundle(keys.bundle)),
			"bad version":         NewClientConfig(uri, WithClientTrustBundle(keys.bundle), WithClientProtocolVersion("SSLv2")),
			"bad compression":     NewClientConfig(uri, WithClientTrustBundle(keys.bundle), WithClientCompression("lz4")),
			"nil logger":          NewClientConfig(uri, WithClientTrustBundle(keys.bundle), WithClientLogger(nil)),
		}
		for name, config := range testCases {
			t.Run(name, func(t *testing.T) {
				assert.Error(t, config.Validate())
			})
		}
	})
}
