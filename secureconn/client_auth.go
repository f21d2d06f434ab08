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
	"fmt"
	"strings"
)

// ClientAuth is the peer certificate requirement mode.
//
// On a server it decides whether clients must present a certificate. On a
// client it decides whether the server certificate is validated.
type ClientAuth int

const (
	// ClientAuthNone does not request nor validate a peer certificate.
	ClientAuthNone ClientAuth = iota
	// ClientAuthOptional validates a peer certificate when one is sent.
	ClientAuthOptional
	// ClientAuthRequired requires a peer certificate that chains to the trust bundle.
	ClientAuthRequired
)

// ParseClientAuth maps "none", "optional" and "required" onto a ClientAuth.
// The OpenSSL style names CERT_NONE, CERT_OPTIONAL and CERT_REQUIRED are
// accepted too.
func ParseClientAuth(mode string) (ClientAuth, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "none", "cert_none":
		return ClientAuthNone, nil
	case "optional", "cert_optional":
		return ClientAuthOptional, nil
	case "required", "cert_required":
		return ClientAuthRequired, nil
	default:
		return ClientAuthNone, fmt.Errorf("%w: %q", ErrUnknownClientAuth, mode)
	}
}

// String implements fmt.Stringer.
func (c ClientAuth) String() string {
	switch c {
	case ClientAuthNone:
		return "none"
	case ClientAuthOptional:
		return "optional"
	case ClientAuthRequired:
		return "required"
	default:
		return fmt.Sprintf("ClientAuth(%d)", int(c))
	}
}

// ServerClientAuthType returns the crypto/tls server setting for the mode.
func (c ClientAuth) ServerClientAuthType() tls.ClientAuthType {
	switch c {
	case ClientAuthOptional:
		return tls.VerifyClientCertIfGiven
	case ClientAuthRequired:
		return tls.RequireAndVerifyClientCert
	default:
		return tls.NoClientCert
	}
}

// ValidatesPeer reports whether the mode validates peer certificates.
func (c ClientAuth) ValidatesPeer() bool {
	return c == ClientAuthOptional || c == ClientAuthRequired
}
