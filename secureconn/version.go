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

// ParseProtocolVersion returns the minimum and maximum TLS versions for a
// protocol version name such as "TLS1.2", "TLSv1_2" or "PROTOCOL_TLSv1_2".
// An empty name, "auto" and "TLS" negotiate between TLS 1.2 and TLS 1.3;
// a concrete version pins both bounds.
func ParseProtocolVersion(name string) (minVersion, maxVersion uint16, err error) {
	normalized := strings.ToUpper(strings.TrimSpace(name))
	normalized = strings.TrimPrefix(normalized, "PROTOCOL_")
	normalized = strings.NewReplacer("TLSV", "TLS", "_", ".", " ", "").Replace(normalized)

	switch normalized {
	case "", "AUTO", "TLS", "SSLV23", "TLS.CLIENT", "TLS.SERVER":
		return tls.VersionTLS12, tls.VersionTLS13, nil
	case "TLS1", "TLS1.0":
		return tls.VersionTLS10, tls.VersionTLS10, nil
	case "TLS1.1":
		return tls.VersionTLS11, tls.VersionTLS11, nil
	case "TLS1.2":
		return tls.VersionTLS12, tls.VersionTLS12, nil
	case "TLS1.3":
		return tls.VersionTLS13, tls.VersionTLS13, nil
	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownProtocolVersion, name)
	}
}

// VersionName returns a human readable name for a TLS version.
func VersionName(version uint16) string {
	return tls.VersionName(version)
}
