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
	"os"
	"regexp"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/tochemey/tlsrpc/internal/tcp"
	"github.com/tochemey/tlsrpc/internal/validation"
	"github.com/tochemey/tlsrpc/internal/wire"
	"github.com/tochemey/tlsrpc/log"
	"github.com/tochemey/tlsrpc/secureconn"
	"github.com/tochemey/tlsrpc/verify"
)

// DefaultPaths are the endpoint paths served when none are configured.
var DefaultPaths = []string{"/", "/RPC2"}

var pathPattern = regexp.MustCompile(`^/[A-Za-z0-9._~/-]*$`)

// SocketOptions are the options of the listening socket. Options the
// platform does not support are ignored.
//
// ReusePort sets SO_REUSEPORT and is enabled by default. FastOpen sets
// TCP_FASTOPEN with a queue of FastOpenQueueLen, or 256 when zero.
// DeferAccept sets TCP_DEFER_ACCEPT, so a connection is only accepted
// once the client has sent its ClientHello.
type SocketOptions struct {
	ReusePort        bool
	FastOpen         bool
	FastOpenQueueLen int
	DeferAccept      bool
}

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a config.
	Apply(*ServerConfig)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(config *ServerConfig)

// Apply implements Option.
func (f OptionFunc) Apply(c *ServerConfig) {
	f(c)
}

// ServerConfig holds the server settings. Build it with NewServerConfig.
//
// The identity material is given either as file paths or as PEM blocks.
// The peer certificate requirement defaults to optional, so that a
// verification policy decides what happens to clients without a
// certificate.
type ServerConfig struct {
	host                 string
	port                 int
	trustBundle          string
	keyFile              string
	certFile             string
	keyPEM               []byte
	certPEM              []byte
	trustPEM             []byte
	clientAuth           secureconn.ClientAuth
	protocolVersion      string
	cipherSuites         []string
	handshakeOnConnect   bool
	suppressRaggedEOFs   bool
	policy               *verify.Policy
	paths                []string
	handshakeTimeout     time.Duration
	idleTimeout          time.Duration
	maxFrameSize         uint32
	compression          tcp.Compression
	acceptLoops          int
	maxAcceptConnections int32
	maxConcurrentConns   int
	socketOptions        SocketOptions
	logger               log.Logger
	meter                metric.Meter
}

var _ validation.Validator = (*ServerConfig)(nil)

// NewServerConfig returns a ServerConfig listening on host:port.
func NewServerConfig(host string, port int, opts ...Option) *ServerConfig {
	cfg := &ServerConfig{
		host:               host,
		port:               port,
		clientAuth:         secureconn.ClientAuthOptional,
		handshakeOnConnect: true,
		suppressRaggedEOFs: true,
		policy:             verify.NewPolicy(),
		paths:              DefaultPaths,
		handshakeTimeout:   10 * time.Second,
		idleTimeout:        2 * time.Minute,
		maxFrameSize:       wire.DefaultMaxFrameSize,
		compression:        tcp.NoCompression,
		acceptLoops:        4,
		socketOptions:      SocketOptions{ReusePort: true},
		logger:             log.DefaultLogger,
	}

	for _, opt := range opts {
		opt.Apply(cfg)
	}

	return cfg
}

// WithTrustBundle sets the PEM file of the authorities client
// certificates must chain to.
func WithTrustBundle(path string) Option {
	return OptionFunc(func(config *ServerConfig) {
		config.trustBundle = path
	})
}

// WithTrustBundlePEM sets the PEM encoded trust bundle.
func WithTrustBundlePEM(bundle []byte) Option {
	return OptionFunc(func(config *ServerConfig) {
		config.trustPEM = bundle
	})
}

// WithIdentityFiles sets the PEM files of the server key and certificate chain.
func WithIdentityFiles(keyPath, certPath string) Option {
	return OptionFunc(func(config *ServerConfig) {
		config.keyFile = keyPath
		config.certFile = certPath
	})
}

// WithIdentityPEM sets the PEM encoded server key and certificate chain.
func WithIdentityPEM(key, cert []byte) Option {
	return OptionFunc(func(config *ServerConfig) {
		config.keyPEM = key
		config.certPEM = cert
	})
}

// WithClientAuth sets whether clients must present a certificate.
func WithClientAuth(mode secureconn.ClientAuth) Option {
	return OptionFunc(func(config *ServerConfig) {
		config.clientAuth = mode
	})
}

// WithProtocolVersion pins the TLS version, e.g. "TLS1.3". An empty
// value negotiates TLS 1.2 or TLS 1.3.
func WithProtocolVersion(version string) Option {
	return OptionFunc(func(config *ServerConfig) {
		config.protocolVersion = version
	})
}

// WithHandshakeOnConnect chooses between completing the handshake as soon
// as a connection is accepted and deferring it to the first read. The
// handshake is always completed before verification when a policy is set.
func WithHandshakeOnConnect(enabled bool) Option {
	return OptionFunc(func(config *ServerConfig) {
		config.handshakeOnConnect = enabled
	})
}

// WithSuppressRaggedEOFs decides whether a client closing the socket
// without a TLS close_notify is seen as a clean end of stream.
func WithSuppressRaggedEOFs(enabled bool) Option {
	return OptionFunc(func(config *ServerConfig) {
		config.suppressRaggedEOFs = enabled
	})
}

// WithCipherSuites restricts the cipher suites, by Go name.
func WithCipherSuites(names ...string) Option {
	return OptionFunc(func(config *ServerConfig) {
		config.cipherSuites = append([]string(nil), names...)
	})
}

// WithVerifyFields sets the verification policy from a map of subject
// field to expected value. Entries are evaluated in field name order.
func WithVerifyFields(fields map[string]string) Option {
	return OptionFunc(func(config *ServerConfig) {
		config.policy = verify.PolicyFromMap(fields)
	})
}

// WithVerificationPolicy sets the verification policy.
func WithVerificationPolicy(policy *verify.Policy) Option {
	return OptionFunc(func(config *ServerConfig) {
		if policy == nil {
			policy = verify.NewPolicy()
		}
		config.policy = policy
	})
}

// WithPaths sets the endpoint paths requests may be addressed to.
func WithPaths(paths ...string) Option {
	return OptionFunc(func(config *ServerConfig) {
		config.paths = append([]string(nil), paths...)
	})
}

// WithHandshakeTimeout bounds the TLS handshake of accepted connections.
func WithHandshakeTimeout(timeout time.Duration) Option {
	return OptionFunc(func(config *ServerConfig) {
		config.handshakeTimeout = timeout
	})
}

// WithIdleTimeout closes admitted connections that stay silent for the
// given duration. Zero disables it.
func WithIdleTimeout(timeout time.Duration) Option {
	return OptionFunc(func(config *ServerConfig) {
		config.idleTimeout = timeout
	})
}

// WithMaxFrameSize sets the largest request frame the server reads.
func WithMaxFrameSize(size uint32) Option {
	return OptionFunc(func(config *ServerConfig) {
		config.maxFrameSize = size
	})
}

// WithCompression compresses admitted connections. Clients must use the
// same compression.
func WithCompression(compression tcp.Compression) Option {
	return OptionFunc(func(config *ServerConfig) {
		config.compression = compression
	})
}

// WithAcceptLoops sets the number of concurrent accept loops.
func WithAcceptLoops(loops int) Option {
	return OptionFunc(func(config *ServerConfig) {
		config.acceptLoops = loops
	})
}

// WithMaxAcceptConnections stops the server once it has accepted the
// given number of connections. Zero means unlimited.
func WithMaxAcceptConnections(limit int32) Option {
	return OptionFunc(func(config *ServerConfig) {
		config.maxAcceptConnections = limit
	})
}

// WithMaxConcurrentConnections caps the number of connections handled at
// once, admission included. Accepted connections past the cap wait for a
// free slot. Zero means no cap.
func WithMaxConcurrentConnections(n int) Option {
	return OptionFunc(func(config *ServerConfig) {
		config.maxConcurrentConns = n
	})
}

// WithSocketOptions sets the options of the listening socket.
func WithSocketOptions(options SocketOptions) Option {
	return OptionFunc(func(config *ServerConfig) {
		config.socketOptions = options
	})
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(config *ServerConfig) {
		config.logger = logger
	})
}

// WithMeter sets the meter used to create the server instruments. The
// global meter provider is used otherwise.
func WithMeter(meter metric.Meter) Option {
	return OptionFunc(func(config *ServerConfig) {
		config.meter = meter
	})
}

// Address returns the listen address.
func (x *ServerConfig) Address() string {
	return net.JoinHostPort(x.host, strconv.Itoa(x.port))
}

// ClientAuth returns the peer certificate requirement.
func (x *ServerConfig) ClientAuth() secureconn.ClientAuth {
	return x.clientAuth
}

// Policy returns the verification policy.
func (x *ServerConfig) Policy() *verify.Policy {
	return x.policy
}

// Paths returns the served endpoint paths.
func (x *ServerConfig) Paths() []string {
	return append([]string(nil), x.paths...)
}

// HandshakeOnConnect reports whether the handshake runs on accept.
func (x *ServerConfig) HandshakeOnConnect() bool {
	return x.handshakeOnConnect
}

// SuppressRaggedEOFs reports whether ragged closes read as a clean EOF.
func (x *ServerConfig) SuppressRaggedEOFs() bool {
	return x.suppressRaggedEOFs
}

// HandshakeTimeout returns the handshake timeout.
func (x *ServerConfig) HandshakeTimeout() time.Duration {
	return x.handshakeTimeout
}

// IdleTimeout returns the idle timeout of admitted connections.
func (x *ServerConfig) IdleTimeout() time.Duration {
	return x.idleTimeout
}

// MaxFrameSize returns the largest request frame size.
func (x *ServerConfig) MaxFrameSize() uint32 {
	return x.maxFrameSize
}

// Compression returns the stream compression.
func (x *ServerConfig) Compression() tcp.Compression {
	return x.compression
}

// MaxConcurrentConnections returns the cap on connections handled at once.
func (x *ServerConfig) MaxConcurrentConnections() int {
	return x.maxConcurrentConns
}

// SocketOptions returns the options of the listening socket.
func (x *ServerConfig) SocketOptions() SocketOptions {
	return x.socketOptions
}

// Logger returns the logger.
func (x *ServerConfig) Logger() log.Logger {
	return x.logger
}

// Validate implements validation.Validator.
func (x *ServerConfig) Validate() error {
	chain := validation.New(validation.AllErrors()).
		AddValidator(validation.NewEmptyStringValidator("host", x.host)).
		AddAssertion(x.port >= 0 && x.port <= 65535, "invalid port").
		AddValidator(validation.NewTCPAddressValidator(x.Address())).
		AddValidator(validation.NewFileValidator("trust bundle", x.trustBundle)).
		AddValidator(validation.NewFileValidator("key file", x.keyFile)).
		AddValidator(validation.NewFileValidator("certificate file", x.certFile)).
		AddAssertion(x.hasIdentity(), "a server key and certificate are required").
		AddAssertion(x.clientAuth == secureconn.ClientAuthNone || x.hasTrustBundle(),
			"a trust bundle is required to validate client certificates").
		AddAssertion(len(x.paths) > 0, "at least one path is required").
		AddAssertion(x.handshakeTimeout > 0, "handshakeTimeout must be greater than 0").
		AddAssertion(x.idleTimeout >= 0, "invalid idle timeout").
		AddAssertion(x.maxFrameSize >= 1024, "maxFrameSize must be at least 1KB").
		AddAssertion(x.acceptLoops > 0, "acceptLoops must be greater than 0").
		AddAssertion(x.maxAcceptConnections >= 0, "invalid maxAcceptConnections").
		AddAssertion(x.maxConcurrentConns >= 0, "invalid maxConcurrentConnections").
		AddAssertion(x.socketOptions.FastOpenQueueLen >= 0, "invalid fast open queue length").
		AddAssertion(x.logger != nil, "logger is required")

	for _, path := range x.paths {
		chain.AddValidator(validation.NewPatternValidator(pathPattern, path, fmt.Errorf("invalid path %q", path)))
	}

	if _, _, err := secureconn.ParseProtocolVersion(x.protocolVersion); err != nil {
		chain.AddAssertion(false, err.Error())
	}
	if _, err := secureconn.ParseCipherSuites(x.cipherSuites...); err != nil {
		chain.AddAssertion(false, err.Error())
	}
	if _, err := tcp.ParseCompression(string(x.compression)); err != nil {
		chain.AddAssertion(false, err.Error())
	}

	return chain.Validate()
}

func (x *ServerConfig) hasIdentity() bool {
	return (x.keyFile != "" && x.certFile != "") || (len(x.keyPEM) > 0 && len(x.certPEM) > 0)
}

func (x *ServerConfig) hasTrustBundle() bool {
	return x.trustBundle != "" || len(x.trustPEM) > 0
}

// secureConn loads the identity material.
func (x *ServerConfig) secureConn() (*secureconn.SecureConn, error) {
	minVersion, maxVersion, err := secureconn.ParseProtocolVersion(x.protocolVersion)
	if err != nil {
		return nil, err
	}

	suites, err := secureconn.ParseCipherSuites(x.cipherSuites...)
	if err != nil {
		return nil, err
	}

	opts := []secureconn.Option{
		secureconn.WithClientAuth(x.clientAuth),
		secureconn.WithVersions(minVersion, maxVersion),
		secureconn.WithCipherSuites(suites),
	}

	trustPEM, err := pemOrFile(x.trustPEM, x.trustBundle)
	if err != nil {
		return nil, err
	}

	keyPEM, certPEM := x.keyPEM, x.certPEM
	if len(keyPEM) == 0 && len(certPEM) == 0 {
		if keyPEM, err = pemOrFile(nil, x.keyFile); err != nil {
			return nil, err
		}
		if certPEM, err = pemOrFile(nil, x.certFile); err != nil {
			return nil, err
		}
	}

	conn, err := secureconn.NewSecureConnFromPEMBlocks(trustPEM, keyPEM, certPEM, opts...)
	if err != nil {
		return nil, err
	}

	if err := conn.Validate(true); err != nil {
		return nil, err
	}
	return conn, nil
}

func (x *ServerConfig) listenConfig() *tcp.ListenConfig {
	return &tcp.ListenConfig{
		SocketReusePort:        x.socketOptions.ReusePort,
		SocketFastOpen:         x.socketOptions.FastOpen,
		SocketFastOpenQueueLen: x.socketOptions.FastOpenQueueLen,
		SocketDeferAccept:      x.socketOptions.DeferAccept,
	}
}

// pemOrFile returns block when set and the content of path otherwise.
func pemOrFile(block []byte, path string) ([]byte, error) {
	if len(block) > 0 || path == "" {
		return block, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rpc: failed to read %s: %w", path, err)
	}
	return data, nil
}
