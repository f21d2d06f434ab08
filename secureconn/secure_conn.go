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

package secureconn

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// SecureConn holds the TLS identity material of an endpoint: its key and
// certificate chain, the bundle of authorities it trusts, the peer
// certificate requirement, the protocol version bounds and the cipher
// suites. It is immutable once built and produces independent tls.Config
// values for the server and the client side.
type SecureConn struct {
	rootCA       *x509.CertPool
	cert         *tls.Certificate
	clientAuth   ClientAuth
	minVersion   uint16
	maxVersion   uint16
	cipherSuites []uint16
	serverName   string
}

// Option configures a SecureConn.
type Option func(*SecureConn)

// WithClientAuth sets the peer certificate requirement.
func WithClientAuth(mode ClientAuth) Option {
	return func(conn *SecureConn) {
		conn.clientAuth = mode
	}
}

// WithVersions sets the protocol version bounds. See ParseProtocolVersion.
func WithVersions(minVersion, maxVersion uint16) Option {
	return func(conn *SecureConn) {
		conn.minVersion = minVersion
		conn.maxVersion = maxVersion
	}
}

// WithCipherSuites restricts the TLS 1.2 and earlier cipher suites.
func WithCipherSuites(ids []uint16) Option {
	return func(conn *SecureConn) {
		conn.cipherSuites = append([]uint16(nil), ids...)
	}
}

// WithServerName sets the name the client expects in the server
// certificate. It defaults to the host being dialed.
func WithServerName(name string) Option {
	return func(conn *SecureConn) {
		conn.serverName = name
	}
}

// NewSecureConn creates an instance of SecureConn. Both rootCA and cert
// are optional: a client may not present a certificate, and a server
// with ClientAuthNone does not need a trust bundle.
func NewSecureConn(rootCA *x509.CertPool, cert *tls.Certificate, opts ...Option) *SecureConn {
	conn := &SecureConn{
		rootCA:     rootCA,
		cert:       cert,
		clientAuth: ClientAuthRequired,
		minVersion: tls.VersionTLS12,
		maxVersion: tls.VersionTLS13,
	}

	for _, opt := range opts {
		opt(conn)
	}

	return conn
}

// NewSecureConnFromPEMBlocks creates a SecureConn from PEM encoded
// material. Empty blocks are skipped; a key without a certificate, or
// the reverse, is an error.
func NewSecureConnFromPEMBlocks(rootCAsPEMBlock, keyPEMBlock, certPEMBlock []byte, opts ...Option) (*SecureConn, error) {
	var certpool *x509.CertPool
	if len(rootCAsPEMBlock) > 0 {
		certpool = x509.NewCertPool()
		if !certpool.AppendCertsFromPEM(rootCAsPEMBlock) {
			return nil, ErrEmptyTrustBundle
		}
	}

	var certificate *tls.Certificate
	if len(keyPEMBlock) > 0 || len(certPEMBlock) > 0 {
		x509KeyPair, err := tls.X509KeyPair(certPEMBlock, keyPEMBlock)
		if err != nil {
			return nil, fmt.Errorf("secureconn: invalid key pair: %w", err)
		}
		certificate = &x509KeyPair
	}

	return NewSecureConn(certpool, certificate, opts...), nil
}

// NewSecureConnFromFiles reads the PEM material from disk. Empty paths
// are skipped.
func NewSecureConnFromFiles(caFile, keyFile, certFile string, opts ...Option) (*SecureConn, error) {
	caPEM, err := readOptional(caFile)
	if err != nil {
		return nil, err
	}

	keyPEM, err := readOptional(keyFile)
	if err != nil {
		return nil, err
	}

	certPEM, err := readOptional(certFile)
	if err != nil {
		return nil, err
	}

	return NewSecureConnFromPEMBlocks(caPEM, keyPEM, certPEM, opts...)
}

// ClientAuth returns the peer certificate requirement
func (conn *SecureConn) ClientAuth() ClientAuth {
	return conn.clientAuth
}

// Certificate returns the certificate presented to peers, if any
func (conn *SecureConn) Certificate() *tls.Certificate {
	return conn.cert
}

// Versions returns the protocol version bounds
func (conn *SecureConn) Versions() (minVersion, maxVersion uint16) {
	return conn.minVersion, conn.maxVersion
}

// Validate checks the material is usable on the given side.
func (conn *SecureConn) Validate(server bool) error {
	if server && conn.cert == nil {
		return ErrNoCertificate
	}
	if server && conn.clientAuth.ValidatesPeer() && conn.rootCA == nil {
		return ErrNoTrustBundle
	}
	return nil
}

// SecureServer returns the TLS configuration used to accept connections.
// Each call returns a fresh tls.Config.
func (conn *SecureConn) SecureServer() *tls.Config {
	config := conn.baseConfig()
	config.ClientAuth = conn.clientAuth.ServerClientAuthType()
	if conn.clientAuth.ValidatesPeer() {
		config.ClientCAs = conn.rootCA
	}
	return config
}

// SecureClient returns the TLS configuration used to dial a server.
// With ClientAuthNone the server certificate is not validated.
func (conn *SecureConn) SecureClient() *tls.Config {
	config := conn.baseConfig()
	config.RootCAs = conn.rootCA
	config.ServerName = conn.serverName
	// nolint
	config.InsecureSkipVerify = conn.clientAuth == ClientAuthNone
	return config
}

func (conn *SecureConn) baseConfig() *tls.Config {
	config := &tls.Config{
		MinVersion:   conn.minVersion,
		MaxVersion:   conn.maxVersion,
		CipherSuites: append([]uint16(nil), conn.cipherSuites...),
		CurvePreferences: []tls.CurveID{
			tls.X25519,
			tls.CurveP256,
			tls.CurveP384,
			tls.CurveP521,
		},
	}
	if conn.cert != nil {
		config.Certificates = []tls.Certificate{*conn.cert}
	}
	return config
}

func readOptional(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("secureconn: failed to read %s: %w", path, err)
	}
	return data, nil
}
