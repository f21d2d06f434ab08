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

// Outcome classifies a verification Result.
type Outcome int

const (
	// OutcomeUnknown is the zero Outcome. It never accepts.
	OutcomeUnknown Outcome = iota
	// OutcomeAccepted means the peer satisfied the policy.
	OutcomeAccepted
	// OutcomeNoCertificate means a policy was configured but the peer
	// did not present a certificate.
	OutcomeNoCertificate
	// OutcomeMissingField means a required attribute was absent.
	OutcomeMissingField
	// OutcomeMismatch means a required attribute held another value.
	OutcomeMismatch
	// OutcomeError means the certificate could not be evaluated.
	OutcomeError
)

// String returns the outcome as used in logs and metric attributes.
func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeNoCertificate:
		return "no_certificate"
	case OutcomeMissingField:
		return "missing_field"
	case OutcomeMismatch:
		return "mismatch"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the decision of Verify. A rejected Result always carries a
// human-readable reason. The zero Result is rejected.
type Result struct {
	outcome Outcome
	field   string
	reason  string
}

// Accepted returns an accepting Result.
func Accepted() Result {
	return Result{outcome: OutcomeAccepted}
}

// Rejected returns a rejecting Result for the given field. Passing
// OutcomeAccepted yields OutcomeUnknown.
func Rejected(outcome Outcome, field, reason string) Result {
	if outcome == OutcomeAccepted {
		outcome = OutcomeUnknown
	}
	return Result{outcome: outcome, field: field, reason: reason}
}

// Failed returns the rejecting Result for a certificate that could not be
// evaluated.
func Failed(err error) Result {
	return Result{outcome: OutcomeError, reason: err.Error()}
}

// IsAccepted reports whether the peer was accepted.
func (r Result) IsAccepted() bool {
	return r.outcome == OutcomeAccepted
}

// Outcome returns the classification of the decision.
func (r Result) Outcome() Outcome {
	return r.outcome
}

// Field returns the attribute that caused a rejection, if any.
func (r Result) Field() string {
	return r.field
}

// Reason returns why the peer was rejected. It is empty when accepted.
func (r Result) Reason() string {
	return r.reason
}

// String implements fmt.Stringer.
func (r Result) String() string {
	if r.IsAccepted() {
		return "accepted"
	}
	return "rejected: " + r.reason
}
