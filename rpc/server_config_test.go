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
	"crypto/x509/pkix"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/tochemey/tlsrpc/internal/tcp"
	"github.com/tochemey/tlsrpc/internal/wire"
	"github.com/tochemey/tlsrpc/log"
	"github.com/tochemey/tlsrpc/secureconn"
	"github.com/tochemey/tlsrpc/verify"
)

func TestServerConfigDefaults(t *testing.T) {
	config := NewServerConfig("127.0.0.1", 8443)
	assert.Equal(t, "127.0.0.1:8443", config.Address())
	assert.Equal(t, secureconn.ClientAuthOptional, config.ClientAuth())
	assert.True(t, config.HandshakeOnConnect())
	assert.True(t, config.SuppressRaggedEOFs())
	assert.True(t, config.Policy().IsEmpty())
	assert.Equal(t, []string{"/", "/RPC2"}, config.Paths())
	assert.Equal(t, 10*time.Second, config.HandshakeTimeout())
	assert.Equal(t, 2*time.Minute, config.IdleTimeout())
	assert.Equal(t, uint32(wire.DefaultMaxFrameSize), config.MaxFrameSize())
	assert.Equal(t, tcp.NoCompression, config.Compression())
	assert.Equal(t, log.DefaultLogger, config.Logger())
	assert.Zero(t, config.MaxConcurrentConnections())
	assert.Equal(t, SocketOptions{ReusePort: true}, config.SocketOptions())
}

func TestServerConfigOptions(t *testing.T) {
	policy := verify.NewPolicy().Require("O", "Acme")
	config := NewServerConfig("0.0.0.0", 0,
		WithClientAuth(secureconn.ClientAuthRequired),
		WithHandshakeOnConnect(false),
		WithSuppressRaggedEOFs(false),
		WithVerificationPolicy(policy),
		WithPaths("/api"),
		WithHandshakeTimeout(time.Second),
		WithIdleTimeout(0),
		WithMaxFrameSize(4096),
		WithCompression(tcp.ZstdCompression),
		WithMaxConcurrentConnections(64),
		WithSocketOptions(SocketOptions{FastOpen: true, FastOpenQueueLen: 128, DeferAccept: true}),
		WithLogger(log.DiscardLogger),
		WithMeter(noop.NewMeterProvider().Meter("test")))

	assert.Equal(t, secureconn.ClientAuthRequired, config.ClientAuth())
	assert.False(t, config.HandshakeOnConnect())
	assert.False(t, config.SuppressRaggedEOFs())
	assert.Same(t, policy, config.Policy())
	assert.Equal(t, []string{"/api"}, config.Paths())
	assert.Equal(t, time.Second, config.HandshakeTimeout())
	assert.Zero(t, config.IdleTimeout())
	assert.Equal(t, uint32(4096), config.MaxFrameSize())
	assert.Equal(t, tcp.ZstdCompression, config.Compression())
	assert.Equal(t, 64, config.MaxConcurrentConnections())
	assert.Equal(t, &tcp.ListenConfig{
		SocketFastOpen:         true,
		SocketFastOpenQueueLen: 128,
		SocketDeferAccept:      true,
	}, config.listenConfig())

	t.Run("verify fields become a policy", func(t *testing.T) {
		config := NewServerConfig("127.0.0.1", 0, WithVerifyFields(map[string]string{
			"organizationalUnitName": "eng",
			"CN":                     "alice",
		}))
		assert.Equal(t, "CN=alice, OU=eng", config.Policy().String())
	})
}

func TestServerConfigValidate(t *testing.T) {
	keys := newPKI(t)

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, keys.serverConfig(t).Validate())
		require.NoError(t, keys.serverConfig(t, WithCipherSuites("TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256"),
			WithProtocolVersion("TLSv1.2")).Validate())
	})
	t.Run("PEM identity", func(t *testing.T) {
		leaf := keys.root.Issue(t, pkix.Name{CommonName: "server"})
		config := NewServerConfig("127.0.0.1", 0,
			WithTrustBundlePEM(keys.root.CertPEM()),
			WithIdentityPEM(leaf.KeyPEM, leaf.CertPEM))
		require.NoError(t, config.Validate())
	})
	t.Run("no client auth needs no bundle", func(t *testing.T) {
		config := NewServerConfig("127.0.0.1", 0,
			WithIdentityFiles(keys.serverKey, keys.serverCert),
			WithClientAuth(secureconn.ClientAuthNone))
		require.NoError(t, config.Validate())
	})

	testCases := map[string]*ServerConfig{
		"missing identity":  NewServerConfig("127.0.0.1", 0, WithTrustBundle(keys.bundle)),
		"missing bundle":    NewServerConfig("127.0.0.1", 0, WithIdentityFiles(keys.serverKey, keys.serverCert)),
		"empty host":        NewServerConfig("", 0, WithTrustBundle(keys.bundle), WithIdentityFiles(keys.serverKey, keys.serverCert)),
		"invalid port":      NewServerConfig("127.0.0.1", 70000, WithTrustBundle(keys.bundle), WithIdentityFiles(keys.serverKey, keys.serverCert)),
		"invalid path":      keys.serverConfig(t, WithPaths("no-slash")),
		"no path":           keys.serverConfig(t, WithPaths()),
		"zero handshake":    keys.serverConfig(t, WithHandshakeTimeout(0)),
		"tiny frames":       keys.serverConfig(t, WithMaxFrameSize(10)),
		"bad version":       keys.serverConfig(t, WithProtocolVersion("SSLv3")),
		"bad cipher":        keys.serverConfig(t, WithCipherSuites("NOT_A_CIPHER")),
		"bad compression":   keys.serverConfig(t, WithCompression("lz4")),
		"zero accept loops": keys.serverConfig(t, WithAcceptLoops(0)),
		"nil logger":        keys.serverConfig(t, WithLogger(nil)),
		"negative cap":      keys.serverConfig(t, WithMaxConcurrentConnections(-1)),
		"negative queue":    keys.serverConfig(t, WithSocketOptions(SocketOptions{FastOpen: true, FastOpenQueueLen: -1})),
	}
	for name, config := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, config.Validate())
		})
	}
}

func TestServerConfigMixedIdentitySources(t *testing.T) {
	keys := newPKI(t)
	leaf := keys.root.Issue(t, pkix.Name{CommonName: "server"})

	testCases := map[string]*ServerConfig{
		"identity files with PEM bundle": NewServerConfig("127.0.0.1", 0,
			WithIdentityFiles(keys.serverKey, keys.serverCert),
			WithTrustBundlePEM(keys.root.CertPEM()),
			WithLogger(log.DiscardLogger)),
		"PEM identity with bundle file": NewServerConfig("127.0.0.1", 0,
			WithIdentityPEM(leaf.KeyPEM, leaf.CertPEM),
			WithTrustBundle(keys.bundle),
			WithLogger(log.DiscardLogger)),
	}
	for name, config := range testCases {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, config.Validate())
			server, err := NewServer(config)
			require.NoError(t, err)
			require.NotNil(t, server.Identity().Certificate())
			assert.Equal(t, secureconn.ClientAuthOptional, server.Identity().ClientAuth())
			assert.NotNil(t, server.Identity().SecureServer().ClientCAs)
		})
	}

	t.Run("unreadable bundle file", func(t *testing.T) {
		config := NewServerConfig("127.0.0.1", 0,
			WithIdentityPEM(leaf.KeyPEM, leaf.CertPEM),
			WithTrustBundle(keys.bundle),
			WithLogger(log.DiscardLogger))
		config.trustBundle = keys.dir + "/missing.pem"
		_, err := config.secureConn()
		require.Error(t, err)
	})
}
