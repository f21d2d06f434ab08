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

package testutil

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha1" // nolint
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"io"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// CertRoot is a throwaway certificate authority for unit tests.
type CertRoot struct {
	key     crypto.Signer
	cert    *x509.Certificate
	certPEM []byte
}

// Leaf is a certificate issued by a CertRoot together with its key.
type Leaf struct {
	Cert    *x509.Certificate
	CertPEM []byte
	KeyPEM  []byte
}

// NewCertRoot creates an instance of CertRoot
func NewCertRoot(t *testing.T) *CertRoot {
	t.Helper()
	key := generateKey(t)
	cert, certPEM := generateRootCert(t, key)
	return &CertRoot{
		key:     key,
		cert:    cert,
		certPEM: certPEM,
	}
}

// Key return the root certificate key
func (x *CertRoot) Key() crypto.Signer {
	return x.key
}

// Cert returns the root certificate
func (x *CertRoot) Cert() *x509.Certificate {
	return x.cert
}

// CertPEM returns the PEM encoded root certificate
func (x *CertRoot) CertPEM() []byte {
	return x.certPEM
}

// Pool returns a pool that trusts the root
func (x *CertRoot) Pool() *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AddCert(x.cert)
	return pool
}

// WriteBundle writes the PEM encoded root into dir and returns its path.
func (x *CertRoot) WriteBundle(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "ca.pem")
	require.NoError(t, os.WriteFile(path, x.certPEM, 0o600))
	return path
}

// Issue signs a leaf certificate for the given subject. The leaf is valid
// for loopback addresses and localhost, for both client and server auth.
func (x *CertRoot) Issue(t *testing.T, subject pkix.Name) *Leaf {
	t.Helper()
	key := generateKey(t)

	template := &x509.Certificate{
		Subject:               subject,
		SerialNumber:          generateSerial(t),
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().AddDate(1, 0, 0),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth, x509.ExtKeyUsageServerAuth},
		SubjectKeyId:          calculateSubjectKeyIdentifier(t, key.Public()),
		BasicConstraintsValid: true,
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		DNSNames:              []string{"localhost"},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, x.cert, key.Public(), x.key)
	require.NoError(t, err)

	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	return &Leaf{
		Cert:    cert,
		CertPEM: pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		KeyPEM:  pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}),
	}
}

// TLSCertificate returns the leaf as a tls.Certificate
func (l *Leaf) TLSCertificate(t *testing.T) tls.Certificate {
	t.Helper()
	certificate, err := tls.X509KeyPair(l.CertPEM, l.KeyPEM)
	require.NoError(t, err)
	return certificate
}

// WriteFiles writes the leaf key and certificate into dir using name as
// the file prefix and returns both paths.
func (l *Leaf) WriteFiles(t *testing.T, dir, name string) (keyPath, certPath string) {
	t.Helper()
	keyPath = filepath.Join(dir, name+"-key.pem")
	certPath = filepath.Join(dir, name+"-cert.pem")
	require.NoError(t, os.WriteFile(keyPath, l.KeyPEM, 0o600))
	require.NoError(t, os.WriteFile(certPath, l.CertPEM, 0o600))
	return keyPath, certPath
}

// GetClientTLSConfig creates a client TLS configuration for unit tests
func GetClientTLSConfig(t *testing.T, root *CertRoot) *tls.Config {
	t.Helper()
	leaf := root.Issue(t, pkix.Name{CommonName: "client", Organization: []string{"tlsrpc"}})
	return &tls.Config{
		Certificates: []tls.Certificate{leaf.TLSCertificate(t)},
		RootCAs:      root.Pool(),
		MinVersion:   tls.VersionTLS12,
	}
}

// GetServerTLSConfig creates a server TLS configuration for unit tests
func GetServerTLSConfig(t *testing.T, root *CertRoot) *tls.Config {
	t.Helper()
	leaf := root.Issue(t, pkix.Name{CommonName: "server", Organization: []string{"tlsrpc"}})
	return &tls.Config{
		Certificates: []tls.Certificate{leaf.TLSCertificate(t)},
		ClientAuth:   tls.RequireAndVerifyClientCert,
		ClientCAs:    root.Pool(),
		MinVersion:   tls.VersionTLS12,
	}
}

func generateRootCert(t *testing.T, key crypto.Signer) (*x509.Certificate, []byte) {
	subjectKeyIdentifier := calculateSubjectKeyIdentifier(t, key.Public())

	template := &x509.Certificate{
		Subject:               pkix.Name{CommonName: "tlsrpc test root"},
		SerialNumber:          generateSerial(t),
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().AddDate(10, 0, 0),
		SubjectKeyId:          subjectKeyIdentifier,
		AuthorityKeyId:        subjectKeyIdentifier,
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLenZero:        true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, key.Public(), key)
	require.NoError(t, err)

	rootCert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return rootCert, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func generateKey(t *testing.T) crypto.Signer {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

// generateSerial generates a serial number using the maximum number of octets (20) allowed by RFC 5280 4.1.2.2
func generateSerial(t *testing.T) *big.Int {
	serialNumber := make([]byte, 20)
	_, err := io.ReadFull(rand.Reader, serialNumber)
	require.NoError(t, err)
	// keep the serial positive
	serialNumber[0] &= 0x7f
	return new(big.Int).SetBytes(serialNumber)
}

// calculateSubjectKeyIdentifier composes the key identifier from the
// 160-bit SHA-1 hash of the subject public key bit string (RFC 5280 4.2.1.2).
func calculateSubjectKeyIdentifier(t *testing.T, pubKey crypto.PublicKey) []byte {
	spkiASN1, err := x509.MarshalPKIXPublicKey(pubKey)
	require.NoError(t, err)

	var spki struct {
		Algorithm        pkix.AlgorithmIdentifier
		SubjectPublicKey asn1.BitString
	}
	_, err = asn1.Unmarshal(spkiASN1, &spki)
	require.NoError(t, err)

	// nolint
	skid := sha1.Sum(spki.SubjectPublicKey.Bytes)
	return skid[:]
}
