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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	t.Run("With empty policy and no certificate", func(t *testing.T) {
		result := Verify(nil, NewPolicy())
		assert.True(t, result.IsAccepted())
		assert.Empty(t, result.Reason())
		assert.True(t, Verify(nil, nil).IsAccepted())
	})
	t.Run("With empty policy and fields", func(t *testing.T) {
		result := Verify(NewFields("CN", "anyone"), nil)
		assert.True(t, result.IsAccepted())
	})
	t.Run("With a policy and no certificate", func(t *testing.T) {
		result := Verify(nil, NewPolicy().Require("O", "Acme"))
		require.False(t, result.IsAccepted())
		assert.Equal(t, OutcomeNoCertificate, result.Outcome())
		assert.Equal(t, NoCertificateReason, result.Reason())
	})
	t.Run("With all fields matching", func(t *testing.T) {
		fields := NewFields("CN", "client", "O", "Acme", "OU", "Payments")
		policy := NewPolicy().Require("O", "Acme").Require("OU", "Payments")
		result := Verify(fields, policy)
		assert.True(t, result.IsAccepted())
		assert.Equal(t, "accepted", result.String())
	})
	t.Run("With a mismatching field", func(t *testing.T) {
		fields := NewFields("CN", "client", "O", "Evil")
		result := Verify(fields, PolicyFromMap(map[string]string{"O": "Acme"}))
		require.False(t, result.IsAccepted())
		assert.Equal(t, OutcomeMismatch, result.Outcome())
		assert.Equal(t, "O", result.Field())
		assert.Equal(t, "expected the subject field 'O' to have value 'Acme' instead of 'Evil'", result.Reason())
		assert.Contains(t, result.String(), "rejected: ")
	})
	t.Run("With a missing field", func(t *testing.T) {
		fields := NewFields("CN", "client", "O", "Acme")
		result := Verify(fields, NewPolicy().Require("OU", "Payments"))
		require.False(t, result.IsAccepted())
		assert.Equal(t, OutcomeMissingField, result.Outcome())
		assert.Equal(t, "OU", result.Field())
		assert.Equal(t, "peer did not send the 'OU' field, subject fields received 'CN=client, O=Acme'", result.Reason())
	})
	t.Run("With empty subject", func(t *testing.T) {
		result := Verify(NewFields(), NewPolicy().Require("CN", "client"))
		require.False(t, result.IsAccepted())
		assert.Equal(t, OutcomeMissingField, result.Outcome())
		assert.Contains(t, result.Reason(), "subject fields received ''")
	})
	t.Run("With first failure short-circuiting", func(t *testing.T) {
		fields := NewFields("O", "Evil")
		policy := NewPolicy().Require("O", "Acme").Require("OU", "Payments")
		result := Verify(fields, policy)
		assert.Equal(t, OutcomeMismatch, result.Outcome())
		assert.Equal(t, "O", result.Field())
	})
	t.Run("With multi-valued field", func(t *testing.T) {
		fields := NewFields("OU", "Billing", "OU", "Payments")
		assert.True(t, Verify(fields, NewPolicy().Require("OU", "Payments")).IsAccepted())

		result := Verify(fields, NewPolicy().Require("OU", "Risk"))
		assert.Equal(t, "expected the subject field 'OU' to have value 'Risk' instead of 'Billing, Payments'", result.Reason())
	})
	t.Run("With long attribute names", func(t *testing.T) {
		fields := NewFields("organizationName", "Acme", "commonName", "client")
		policy := PolicyFromMap(map[string]string{"O": "Acme", "2.5.4.3": "client"})
		assert.True(t, Verify(fields, policy).IsAccepted())
	})
	t.Run("With an empty field value", func(t *testing.T) {
		fields := NewFields("CN", "client", "OU", "")
		result := Verify(fields, NewPolicy().Require("OU", ""))
		require.False(t, result.IsAccepted())
		assert.Equal(t, OutcomeMissingField, result.Outcome())
		assert.Equal(t, "OU", result.Field())

		fields = NewFields("OU", "", "OU", "Payments")
		assert.True(t, Verify(fields, NewPolicy().Require("OU", "Payments")).IsAccepted())
	})
	t.Run("With case sensitive values", func(t *testing.T) {
		fields := NewFields("O", "acme")
		assert.False(t, Verify(fields, NewPolicy().Require("O", "Acme")).IsAccepted())
	})
}

func TestPolicy(t *testing.T) {
	t.Run("Require does not mutate the receiver", func(t *testing.T) {
		base := NewPolicy().Require("O", "Acme")
		extended := base.Require("OU", "Payments")
		assert.Equal(t, 1, base.Len())
		assert.Equal(t, 2, extended.Len())
		assert.Equal(t, "O=Acme", base.String())
		assert.Equal(t, "O=Acme, OU=Payments", extended.String())
	})
	t.Run("PolicyFromMap sorts entries", func(t *testing.T) {
		policy := PolicyFromMap(map[string]string{"OU": "Payments", "organizationName": "Acme", "CN": "client"})
		assert.Equal(t, []Requirement{
			{Field: "CN", Value: "client"},
			{Field: "O", Value: "Acme"},
			{Field: "OU", Value: "Payments"},
		}, policy.Entries())
	})
	t.Run("nil policy is empty", func(t *testing.T) {
		var policy *Policy
		assert.True(t, policy.IsEmpty())
		assert.Nil(t, policy.Entries())
		assert.Equal(t, "<empty>", policy.String())
		assert.Equal(t, 1, policy.Require("CN", "x").Len())
	})
	t.Run("Entries returns a copy", func(t *testing.T) {
		policy := NewPolicy().Require("O", "Acme")
		entries := policy.Entries()
		entries[0].Value = "Evil"
		assert.Equal(t, "O=Acme", policy.String())
	})
}

func TestCanonicalName(t *testing.T) {
	testCases := map[string]string{
		"CN":                     "CN",
		"commonName":             "CN",
		"cn":                     "CN",
		"organizationName":       "O",
		"2.5.4.10":               "O",
		"organizationalUnitName": "OU",
		"stateOrProvinceName":    "ST",
		"S":                      "ST",
		"emailAddress":           "emailAddress",
		"E":                      "emailAddress",
		" L ":                    "L",
		"domainComponent":        "DC",
		"1.2.3.4":                "1.2.3.4",
		"custom":                 "custom",
	}
	for name, expected := range testCases {
		assert.Equal(t, expected, CanonicalName(name), name)
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "accepted", OutcomeAccepted.String())
	assert.Equal(t, "no_certificate", OutcomeNoCertificate.String())
	assert.Equal(t, "missing_field", OutcomeMissingField.String())
	assert.Equal(t, "mismatch", OutcomeMismatch.String())
	assert.Equal(t, "error", OutcomeError.String())
	assert.Equal(t, "unknown", OutcomeUnknown.String())
	assert.Equal(t, "unknown", Outcome(99).String())
}

func TestResultZeroValue(t *testing.T) {
	var result Result
	assert.False(t, result.IsAccepted())
	assert.Equal(t, OutcomeUnknown, result.Outcome())

	rejected := Rejected(OutcomeAccepted, "O", "bogus")
	assert.False(t, rejected.IsAccepted())
	assert.Equal(t, OutcomeUnknown, rejected.Outcome())

	failed := Failed(ErrMalformedSubject)
	assert.False(t, failed.IsAccepted())
	assert.Equal(t, OutcomeError, failed.Outcome())
	assert.Equal(t, ErrMalformedSubject.Error(), failed.Reason())
}
