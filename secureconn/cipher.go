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

// ParseCipherSuites resolves cipher suite names into crypto/tls ids.
//
// Each name may itself hold a colon or comma separated list. Names are
// the IANA names used by crypto/tls. TLS 1.3 suites are accepted and
// skipped since crypto/tls does not allow configuring them. An empty
// input returns nil so that crypto/tls defaults apply.
func ParseCipherSuites(names ...string) ([]uint16, error) {
	registry := cipherSuites()
	var ids []uint16
	for _, entry := range names {
		for _, name := range strings.FieldsFunc(entry, isCipherSeparator) {
			name = strings.ToUpper(strings.TrimSpace(name))
			if name == "" {
				continue
			}

			suite, ok := registry[name]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownCipherSuite, name)
			}

			if isTLS13Only(suite) {
				continue
			}

			ids = append(ids, suite.ID)
		}
	}
	return ids, nil
}

// CipherSuiteName returns the IANA name of a cipher suite id.
func CipherSuiteName(id uint16) string {
	return tls.CipherSuiteName(id)
}

func cipherSuites() map[string]*tls.CipherSuite {
	secure := tls.CipherSuites()
	insecure := tls.InsecureCipherSuites()
	registry := make(map[string]*tls.CipherSuite, len(secure)+len(insecure))
	for _, suite := range secure {
		registry[suite.Name] = suite
	}
	for _, suite := range insecure {
		registry[suite.Name] = suite
	}
	return registry
}

func isTLS13Only(suite *tls.CipherSuite) bool {
	for _, version := range suite.SupportedVersions {
		if version != tls.VersionTLS13 {
			return false
		}
	}
	return len(suite.SupportedVersions) > 0
}

func isCipherSeparator(r rune) bool {
	return r == ':' || r == ',' || r == ' '
}
