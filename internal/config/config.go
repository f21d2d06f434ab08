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

// Package config reads the YAML file used by the tlsrpc command.
//
//	log:
//	  level: info
//	server:
//	  host: 0.0.0.0
//	  port: 8443
//	  trust_bundle: /etc/tlsrpc/ca.pem
//	  key_file: /etc/tlsrpc/server.key
//	  cert_file: /etc/tlsrpc/server.pem
//	  client_auth: optional
//	  verify_fields:
//	    O: Acme
//	    OU: Payments
//	client:
//	  uri: tls://127.0.0.1:8443/RPC2
//	  trust_bundle: /etc/tlsrpc/ca.pem
//	  key_file: /etc/tlsrpc/client.key
//	  cert_file: /etc/tlsrpc/client.pem
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tochemey/tlsrpc/internal/tcp"
	"github.com/tochemey/tlsrpc/log"
	"github.com/tochemey/tlsrpc/rpc"
	"github.com/tochemey/tlsrpc/secureconn"
)

var (
	// ErrNoServerSection is returned when the file has no server section.
	ErrNoServerSection = errors.New("config: no server section")
	// ErrNoClientSection is returned when the file has no client section.
	ErrNoClientSection = errors.New("config: no client section")
)

// File is the content of a configuration file.
type File struct {
	Log    Log     `yaml:"log"`
	Server *Server `yaml:"server"`
	Client *Client `yaml:"client"`
}

// Log configures the logger.
type Log struct {
	Level string `yaml:"level"`
}

// Server holds the settings of rpc.ServerConfig. Unset values keep the
// rpc defaults.
type Server struct {
	Host                     string            `yaml:"host"`
	Port                     int               `yaml:"port"`
	TrustBundle              string            `yaml:"trust_bundle"`
	KeyFile                  string            `yaml:"key_file"`
	CertFile                 string            `yaml:"cert_file"`
	ClientAuth               string            `yaml:"client_auth"`
	ProtocolVersion          string            `yaml:"protocol_version"`
	CipherSuites             []string          `yaml:"cipher_suites"`
	HandshakeOnConnect       *bool             `yaml:"handshake_on_connect"`
	SuppressRaggedEOFs       *bool             `yaml:"suppress_ragged_eofs"`
	VerifyFields             map[string]string `yaml:"verify_fields"`
	Paths                    []string          `yaml:"paths"`
	HandshakeTimeout         time.Duration     `yaml:"handshake_timeout"`
	IdleTimeout              *time.Duration    `yaml:"idle_timeout"`
	MaxFrameSize             uint32            `yaml:"max_frame_size"`
	Compression              string            `yaml:"compression"`
	AcceptLoops              int               `yaml:"accept_loops"`
	MaxAcceptConnections     int32             `yaml:"max_accept_connections"`
	MaxConcurrentConnections int               `yaml:"max_concurrent_connections"`
	Socket                   *Socket           `yaml:"socket"`
}

// Socket holds the listening socket options. reuse_port defaults to true.
type Socket struct {
	ReusePort        *bool `yaml:"reuse_port"`
	FastOpen         bool  `yaml:"fast_open"`
	FastOpenQueueLen int   `yaml:"fast_open_queue_len"`
	DeferAccept      bool  `yaml:"defer_accept"`
}

// Client holds the settings of rpc.ClientConfig.
type Client struct {
	URI             string        `yaml:"uri"`
	TrustBundle     string        `yaml:"trust_bundle"`
	KeyFile         string        `yaml:"key_file"`
	CertFile        string        `yaml:"cert_file"`
	ServerAuth      string        `yaml:"server_auth"`
	ServerName      string        `yaml:"server_name"`
	ProtocolVersion string        `yaml:"protocol_version"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	Strict          bool          `yaml:"strict"`
	Compression     string        `yaml:"compression"`
	MaxIdleConns    *int          `yaml:"max_idle_conns"`
	Retry           *Retry        `yaml:"retry"`
}

// Retry configures the retry policy of the client proxy.
type Retry struct {
	MaxTries     int           `yaml:"max_tries"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// Load reads and parses the file at path. Relative file paths found in
// the file are resolved against its directory.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	file, err := Parse(data)
	if err != nil {
		return nil, err
	}

	file.resolve(filepath.Dir(path))
	return file, nil
}

// Parse decodes a configuration document. Unknown keys are an error.
func Parse(data []byte) (*File, error) {
	var file File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: failed to parse: %w", err)
	}
	return &file, nil
}

// Logger returns the zap logger at the configured level.
func (x *File) Logger() (log.Logger, error) {
	level, err := log.ParseLevel(x.Log.Level)
	if err != nil {
		return nil, err
	}
	return log.NewZap(level, os.Stdout), nil
}

// ServerConfig builds the rpc server configuration.
func (x *File) ServerConfig(logger log.Logger) (*rpc.ServerConfig, error) {
	if x.Server == nil {
		return nil, ErrNoServerSection
	}

	opts, err := x.Server.options()
	if err != nil {
		return nil, err
	}

	host := x.Server.Host
	if host == "" {
		host = "127.0.0.1"
	}

	opts = append(opts, rpc.WithLogger(logger))
	return rpc.NewServerConfig(host, x.Server.Port, opts...), nil
}

// ClientConfig builds the rpc client configuration.
func (x *File) ClientConfig(logger log.Logger) (*rpc.ClientConfig, error) {
	if x.Client == nil {
		return nil, ErrNoClientSection
	}

	opts, err := x.Client.options()
	if err != nil {
		return nil, err
	}

	opts = append(opts, rpc.WithClientLogger(logger))
	return rpc.NewClientConfig(x.Client.URI, opts...), nil
}

// ProxyOptions returns the proxy options of the client section.
func (x *File) ProxyOptions() []rpc.ProxyOption {
	if x.Client == nil || x.Client.Retry == nil || x.Client.Retry.MaxTries <= 1 {
		return nil
	}
	retry := x.Client.Retry
	return []rpc.ProxyOption{rpc.WithRetry(retry.MaxTries, retry.InitialDelay, retry.MaxDelay)}
}

func (x *Server) options() ([]rpc.Option, error) {
	var opts []rpc.Option

	if x.TrustBundle != "" {
		opts = append(opts, rpc.WithTrustBundle(x.TrustBundle))
	}
	if x.KeyFile != "" || x.CertFile != "" {
		opts = append(opts, rpc.WithIdentityFiles(x.KeyFile, x.CertFile))
	}
	if x.ClientAuth != "" {
		mode, err := secureconn.ParseClientAuth(x.ClientAuth)
		if err != nil {
			return nil, err
		}
		opts = append(opts, rpc.WithClientAuth(mode))
	}
	if x.ProtocolVersion != "" {
		opts = append(opts, rpc.WithProtocolVersion(x.ProtocolVersion))
	}
	if len(x.CipherSuites) > 0 {
		opts = append(opts, rpc.WithCipherSuites(x.CipherSuites...))
	}
	if x.HandshakeOnConnect != nil {
		opts = append(opts, rpc.WithHandshakeOnConnect(*x.HandshakeOnConnect))
	}
	if x.SuppressRaggedEOFs != nil {
		opts = append(opts, rpc.WithSuppressRaggedEOFs(*x.SuppressRaggedEOFs))
	}
	if len(x.VerifyFields) > 0 {
		opts = append(opts, rpc.WithVerifyFields(x.VerifyFields))
	}
	if len(x.Paths) > 0 {
		opts = append(opts, rpc.WithPaths(x.Paths...))
	}
	if x.HandshakeTimeout > 0 {
		opts = append(opts, rpc.WithHandshakeTimeout(x.HandshakeTimeout))
	}
	if x.IdleTimeout != nil {
		opts = append(opts, rpc.WithIdleTimeout(*x.IdleTimeout))
	}
	if x.MaxFrameSize > 0 {
		opts = append(opts, rpc.WithMaxFrameSize(x.MaxFrameSize))
	}
	if x.Compression != "" {
		compression, err := tcp.ParseCompression(x.Compression)
		if err != nil {
			return nil, err
		}
		opts = append(opts, rpc.WithCompression(compression))
	}
	if x.AcceptLoops > 0 {
		opts = append(opts, rpc.WithAcceptLoops(x.AcceptLoops))
	}
	if x.MaxAcceptConnections > 0 {
		opts = append(opts, rpc.WithMaxAcceptConnections(x.MaxAcceptConnections))
	}
	if x.MaxConcurrentConnections > 0 {
		opts = append(opts, rpc.WithMaxConcurrentConnections(x.MaxConcurrentConnections))
	}
	if x.Socket != nil {
		socket := rpc.SocketOptions{
			ReusePort:        true,
			FastOpen:         x.Socket.FastOpen,
			FastOpenQueueLen: x.Socket.FastOpenQueueLen,
			DeferAccept:      x.Socket.DeferAccept,
		}
		if x.Socket.ReusePort != nil {
			socket.ReusePort = *x.Socket.ReusePort
		}
		opts = append(opts, rpc.WithSocketOptions(socket))
	}
	return opts, nil
}

func (x *Client) options() ([]rpc.ClientOption, error) {
	var opts []rpc.ClientOption

	if x.TrustBundle != "" {
		opts = append(opts, rpc.WithClientTrustBundle(x.TrustBundle))
	}
	if x.KeyFile != "" || x.CertFile != "" {
		opts = append(opts, rpc.WithClientIdentityFiles(x.KeyFile, x.CertFile))
	}
	if x.ServerAuth != "" {
		mode, err := secureconn.ParseClientAuth(x.ServerAuth)
		if err != nil {
			return nil, err
		}
		opts = append(opts, rpc.WithClientAuthMode(mode))
	}
	if x.ServerName != "" {
		opts = append(opts, rpc.WithServerName(x.ServerName))
	}
	if x.ProtocolVersion != "" {
		opts = append(opts, rpc.WithClientProtocolVersion(x.ProtocolVersion))
	}
	if x.ConnectTimeout > 0 {
		opts = append(opts, rpc.WithConnectTimeout(x.ConnectTimeout))
	}
	if x.Strict {
		opts = append(opts, rpc.WithStrict(true))
	}
	if x.Compression != "" {
		compression, err := tcp.ParseCompression(x.Compression)
		if err != nil {
			return nil, err
		}
		opts = append(opts, rpc.WithClientCompression(compression))
	}
	if x.MaxIdleConns != nil {
		opts = append(opts, rpc.WithMaxIdleConns(*x.MaxIdleConns))
	}
	return opts, nil
}

func (x *File) resolve(dir string) {
	if x.Server != nil {
		x.Server.TrustBundle = resolvePath(dir, x.Server.TrustBundle)
		x.Server.KeyFile = resolvePath(dir, x.Server.KeyFile)
		x.Server.CertFile = resolvePath(dir, x.Server.CertFile)
	}
	if x.Client != nil {
		x.Client.TrustBundle = resolvePath(dir, x.Client.TrustBundle)
		x.Client.KeyFile = resolvePath(dir, x.Client.KeyFile)
		x.Client.CertFile = resolvePath(dir, x.Client.CertFile)
	}
}

func resolvePath(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
