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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tochemey/tlsrpc/log"
	"github.com/tochemey/tlsrpc/rpc"
	"github.com/tochemey/tlsrpc/secureconn"
)

const document = `
log:
  level: debug
server:
  host: 0.0.0.0
  port: 8443
  trust_bundle: certs/ca.pem
  key_file: /etc/tlsrpc/server.key
  cert_file: /etc/tlsrpc/server.pem
  client_auth: required
  handshake_on_connect: false
  verify_fields:
    OU: eng
    O: Acme
  paths: ["/RPC2"]
  handshake_timeout: 3s
  idle_timeout: 0s
  compression: zstd
  max_concurrent_connections: 32
  socket:
    defer_accept: true
client:
  uri: tls://127.0.0.1:8443/RPC2
  trust_bundle: certs/ca.pem
  server_auth: required
  connect_timeout: 2s
  strict: true
  max_idle_conns: 2
  retry:
    max_tries: 3
    initial_delay: 10ms
    max_delay: 1s
`

func TestParse(t *testing.T) {
	file, err := Parse([]byte(document))
	require.NoError(t, err)

	assert.Equal(t, "debug", file.Log.Level)

	require.NotNil(t, file.Server)
	assert.Equal(t, 8443, file.Server.Port)
	assert.Equal(t, "required", file.Server.ClientAuth)
	require.NotNil(t, file.Server.HandshakeOnConnect)
	assert.False(t, *file.Server.HandshakeOnConnect)
	assert.Nil(t, file.Server.SuppressRaggedEOFs)
	assert.Equal(t, map[string]string{"OU": "eng", "O": "Acme"}, file.Server.VerifyFields)
	assert.Equal(t, 3*time.Second, file.Server.HandshakeTimeout)
	require.NotNil(t, file.Server.IdleTimeout)
	assert.Zero(t, *file.Server.IdleTimeout)

	serverConfig, err := file.ServerConfig(log.DiscardLogger)
	require.NoError(t, err)
	assert.Equal(t, 32, serverConfig.MaxConcurrentConnections())
	assert.Equal(t, rpc.SocketOptions{ReusePort: true, DeferAccept: true}, serverConfig.SocketOptions())

	require.NotNil(t, file.Client)
	assert.Equal(t, 2*time.Second, file.Client.ConnectTimeout)
	assert.True(t, file.Client.Strict)
	require.NotNil(t, file.Client.Retry)
	assert.Equal(t, 10*time.Millisecond, file.Client.Retry.InitialDelay)
	assert.Len(t, file.ProxyOptions(), 1)
}

func TestParseErrors(t *testing.T) {
	t.Run("unknown key", func(t *testing.T) {
		_, err := Parse([]byte("server:\n  hots: 127.0.0.1\n"))
		require.Error(t, err)
	})
	t.Run("bad duration", func(t *testing.T) {
		_, err := Parse([]byte("server:\n  handshake_timeout: soon\n"))
		require.Error(t, err)
	})
	t.Run("empty document", func(t *testing.T) {
		file, err := Parse(nil)
		require.NoError(t, err)
		assert.Nil(t, file.Server)

		_, err = file.ServerConfig(log.DiscardLogger)
		require.ErrorIs(t, err, ErrNoServerSection)
		_, err = file.ClientConfig(log.DiscardLogger)
		require.ErrorIs(t, err, ErrNoClientSection)
		assert.Nil(t, file.ProxyOptions())
	})
	t.Run("bad enum values", func(t *testing.T) {
		file, err := Parse([]byte("server:\n  client_auth: sometimes\nclient:\n  compression: lz4\n"))
		require.NoError(t, err)
		_, err = file.ServerConfig(log.DiscardLogger)
		require.ErrorIs(t, err, secureconn.ErrUnknownClientAuth)
		_, err = file.ClientConfig(log.DiscardLogger)
		require.Error(t, err)
	})
	t.Run("bad log level", func(t *testing.T) {
		file, err := Parse([]byte("log:\n  level: chatty\n"))
		require.NoError(t, err)
		_, err = file.Logger()
		require.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tlsrpc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(document), 0o600))

	file, err := Load(path)
	require.NoError(t, err)

	// relative paths are resolved against the file directory
	assert.Equal(t, filepath.Join(dir, "certs", "ca.pem"), file.Server.TrustBundle)
	assert.Equal(t, "/etc/tlsrpc/server.key", file.Server.KeyFile)
	assert.Equal(t, filepath.Join(dir, "certs", "ca.pem"), file.Client.TrustBundle)

	logger, err := file.Logger()
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, logger.LogLevel())

	serverConfig, err := file.ServerConfig(log.DiscardLogger)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8443", serverConfig.Address())
	assert.Equal(t, secureconn.ClientAuthRequired, serverConfig.ClientAuth())
	assert.False(t, serverConfig.HandshakeOnConnect())
	assert.True(t, serverConfig.SuppressRaggedEOFs())
	assert.Equal(t, "O=Acme, OU=eng", serverConfig.Policy().String())
	assert.Equal(t, []string{"/RPC2"}, serverConfig.Paths())
	assert.Equal(t, 3*time.Second, serverConfig.HandshakeTimeout())
	assert.Zero(t, serverConfig.IdleTimeout())
	assert.Equal(t, "zstd", string(serverConfig.Compression()))

	clientConfig, err := file.ClientConfig(log.DiscardLogger)
	require.NoError(t, err)
	assert.Equal(t, "tls://127.0.0.1:8443/RPC2", clientConfig.URI())
	assert.Equal(t, 2*time.Second, clientConfig.ConnectTimeout())
	assert.True(t, clientConfig.Strict())

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.yaml"))
		require.Error(t, err)
	})
}
