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

import "errors"

var (
	// ErrUnknownClientAuth is returned when a client certificate mode cannot be parsed.
	ErrUnknownClientAuth = errors.New("secureconn: unknown client certificate mode")
	// ErrUnknownProtocolVersion is returned when a protocol version cannot be parsed.
	ErrUnknownProtocolVersion = errors.New("secureconn: unknown protocol version")
	// ErrUnknownCipherSuite is returned when a cipher suite name is not supported by crypto/tls.
	ErrUnknownCipherSuite = errors.New("secureconn: unknown cipher suite")
	// ErrEmptyTrustBundle is returned when a trust bundle holds no certificate.
	ErrEmptyTrustBundle = errors.New("secureconn: trust bundle holds no certificate")
	// ErrNoTrustBundle is returned when peer certificates must be validated
	// but no trust bundle was configured.
	ErrNoTrustBundle = errors.New("secureconn: peer validation requires a trust bundle")
	// ErrNoCertificate is returned when a server has no certificate to present.
	ErrNoCertificate = errors.New("secureconn: no certificate configured")
)
