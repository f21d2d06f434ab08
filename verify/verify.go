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

package verify

import (
	"fmt"
	"slices"
	"strings"
)

// NoCertificateReason is the rejection reason used when a policy is
// configured and the peer sent no certificate.
const NoCertificateReason = "peer did not present a certificate"

// Verify checks fields against policy.
//
// An empty policy accepts, even when fields is nil. Otherwise a nil fields
// is rejected, and the requirements are evaluated in order: the first
// absent attribute or the first attribute none of whose values equals the
// expected one rejects the peer. An attribute whose values are all empty
// counts as absent. Values are compared exactly.
func Verify(fields *Fields, policy *Policy) Result {
	if policy.IsEmpty() {
		return Accepted()
	}

	if fields == nil {
		return Rejected(OutcomeNoCertificate, "", NoCertificateReason)
	}

	for _, entry := range policy.entries {
		values := fields.values[entry.Field]
		if !hasValue(values) {
			return Rejected(OutcomeMissingField, entry.Field,
				fmt.Sprintf("peer did not send the '%s' field, subject fields received '%s'", entry.Field, fields.String()))
		}

		if !slices.Contains(values, entry.Value) {
			return Rejected(OutcomeMismatch, entry.Field,
				fmt.Sprintf("expected the subject field '%s' to have value '%s' instead of '%s'",
					entry.Field, entry.Value, strings.Join(values, ", ")))
		}
	}

	return Accepted()
}

func hasValue(values []string) bool {
	for _, value := range values {
		if value != "" {
			return true
		}
	}
	return false
}
