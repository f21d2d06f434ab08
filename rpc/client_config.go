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
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/tochemey/tlsrpc/internal/tcp"
	"github.com/tochemey/tlsrpc/internal/validation"
	"github.com/tochemey/tlsrpc/log"
	"github.com/tochemey/tlsrpc/secureconn"
)

// ClientOption is the interface that applies a client configuration option.
type ClientOption interface {
	// Apply sets the ClientOption value of a config.
	Apply(*ClientConfig)
}

var _ ClientOption = ClientOptionFunc(nil)

// ClientOptionFunc implements the ClientOption interface.
type ClientOptionFunc func(config *ClientConfig)

// Apply implements ClientOption.
func (f ClientOptionFunc) Apply(c *ClientConfig) {
	f(c)
}

// ClientConfig holds the settings used to reach a Server.
type ClientConfig struct {
	uri             string
	trustBundle     string
	keyFile         string
	certFile        string
	clientAuth      secureconn.ClientAuth
	protocolVersion string
	connectTimeout  time.Duration
	strict          bool
	serverName      string
	compression     tcp.Compression
	maxIdleConns    int
	logger          log.Logger
}

var _ validation.Validator = (*ClientConfig)(nil)

// NewClientConfig returns a ClientConfig targeting uri, given as
// tls://host:port/path or https://host:port/path. The path is sent with
// every request and defaults to "/".
//
// The server certificate is validated against the trust bundle unless
// the mode is set to secureconn.ClientAuthNone.
func NewClientConfig(uri string, opts ...ClientOption) *ClientConfig {
	cfg := &ClientConfig{
		uri:            uri,
		clientAuth:     secureconn.ClientAuthOptional,
		connectTimeout: 10 * time.Second,
		compression:    tcp.NoCompression,
		maxIdleConns:   8,
		logger:         log.DefaultLogger,
	}

	for _, opt := range opts {
		opt.Apply(cfg)
	}

	return cfg
}

// WithClientTrustBundle sets the PEM file of the authorities the server
// certificate must chain to.
func WithClientTrustBundle(path string) ClientOption {
	return ClientOptionFunc(func(config *ClientConfig) {
		config.trustBundle = path
	})
}

// WithClientIdentityFiles sets the PEM files of the client key and
// certificate presented to the server.
func WithClientIdentityFiles(keyPath, certPath string) ClientOption {
	return ClientOptionFunc(func(config *ClientConfig) {
		config.keyFile = keyPath
		config.certFile = certPath
	})
}

// WithClientAuthMode sets whether the server certificate is validated.
func WithClientAuthMode(mode secureconn.ClientAuth) ClientOption {
	return ClientOptionFunc(func(config *ClientConfig) {
		config.clientAuth = mode
	})
}

// WithClientProtocolVersion pins the TLS version.
func WithClientProtocolVersion(version string) ClientOption {
	return ClientOptionFunc(func(config *ClientConfig) {
		config.protocolVersion = version
	})
}

// WithConnectTimeout bounds the dial and the TLS handshake.
func WithConnectTimeout(timeout time.Duration) ClientOption {
	return ClientOptionFunc(func(config *ClientConfig) {
		config.connectTimeout = timeout
	})
}

// WithStrict makes the client reject response frames that carry no status.
func WithStrict(strict bool) ClientOption {
	return ClientOptionFunc(func(config *ClientConfig) {
		config.strict = strict
	})
}

// WithServerName sets the name expected in the server certificate. The
// URI host is used otherwise.
func WithServerName(name string) ClientOption {
	return ClientOptionFunc(func(config *ClientConfig) {
		config.serverName = name
	})
}

// WithClientCompression compresses the connections. It must match the
// server compression.
func WithClientCompression(compression tcp.Compression) ClientOption {
	return ClientOptionFunc(func(config *ClientConfig) {
		config.compression = compression
	})
}

// WithMaxIdleConns sets how many idle connections are kept for reuse.
func WithMaxIdleConns(n int) ClientOption {
	return ClientOptionFunc(func(config *ClientConfig) {
		config.maxIdleConns = n
	})
}

// WithClientLogger sets the logger.
func WithClientLogger(logger log.Logger) ClientOption {
	return ClientOptionFunc(func(config *ClientConfig) {
		config.logger = logger
	})
}

// URI returns the target URI.
func (x *ClientConfig) URI() string {
	return x.uri
}

// ConnectTimeout returns the connect timeout.
func (x *ClientConfig) ConnectTimeout() time.Duration {
	return x.connectTimeout
}

// Strict reports whether responses without status are rejected.
func (x *ClientConfig) Strict() bool {
	return x.strict
}

// Validate implements validation.Validator.
func (x *ClientConfig) Validate() error {
	chain := validation.New(validation.AllErrors()).
		AddValidator(validation.NewEmptyStringValidator("uri", x.uri)).
		AddValidator(validation.NewFileValidator("trust bundle", x.trustBundle)).
		AddValidator(validation.NewFileValidator("key file", x.keyFile)).
		AddValidator(validation.NewFileValidator("certificate file", x.certFile)).
		AddAssertion((x.keyFile == "") == (x.certFile == ""), "the client key and certificate go together").
		AddAssertion(x.clientAuth == secureconn.ClientAuthNone || x.trustBundle != "",
			"a trust bundle is required to validate the server certificate").
		AddAssertion(x.connectTimeout > 0, "connectTimeout must be greater than 0").
		AddAssertion(x.maxIdleConns >= 0, "invalid maxIdleConns").
		AddAssertion(x.logger != nil, "logger is required")

	if _, _, err := x.target(); err != nil {
		chain.AddAssertion(false, err.Error())
	}
	if _, _, err := secureconn.ParseProtocolVersion(x.protocolVersion); err != nil {
		chain.AddAssertion(false, err.Error())
	}
	if _, err := tcp.ParseCompression(string(x.compression)); err != nil {
		chain.AddAssertion(false, err.Error())
	}

	return chain.Validate()
}

// target splits the URI into the address to dial and the request path.
func (x *ClientConfig) target() (address, path string, err error) {
	u, err := url.Parse(x.uri)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "tls", "https":
	default:
		return "", "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURI, u.Scheme)
	}

	if u.Hostname() == "" || u.Port() == "" {
		return "", "", fmt.Errorf("%w: %q has no host or port", ErrInvalidURI, x.uri)
	}

	path = u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return net.JoinHostPort(u.Hostname(), u.Port()), path, nil
}

func (x *ClientConfig) secureConn() (*secureconn.SecureConn, error) {
	minVersion, maxVersion, err := secureconn.ParseProtocolVersion(x.protocolVersion)
	if err != nil {
		return nil, err
	}

	return secureconn.NewSecureConnFromFiles(x.trustBundle, x.keyFile, x.certFile,
		secureconn.WithClientAuth(x.clientAuth),
		secureconn.WithVersions(minVersion, maxVersion),
		secureconn.WithServerName(x.serverName))
}
