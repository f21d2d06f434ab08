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
	"sort"
	"strings"
)

// Requirement is a single policy entry: the subject attribute Field must
// carry Value.
type Requirement struct {
	Field string
	Value string
}

// Policy is an ordered list of requirements over the subject of a peer
// certificate. Requirements are evaluated in order and evaluation stops
// at the first failure. A nil or empty Policy accepts every peer.
//
// A Policy is never mutated once built: Require returns a new Policy,
// which makes it safe to share between connections.
type Policy struct {
	entries []Requirement
}

// NewPolicy returns an empty Policy.
func NewPolicy() *Policy {
	return &Policy{}
}

// PolicyFromMap builds a Policy from a field to value map. Map iteration
// order is random in Go, so entries are sorted by canonical field name
// and then by value to keep evaluation deterministic.
func PolicyFromMap(fields map[string]string) *Policy {
	entries := make([]Requirement, 0, len(fields))
	for field, value := range fields {
		entries = append(entries, Requirement{Field: CanonicalName(field), Value: value})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Field != entries[j].Field {
			return entries[i].Field < entries[j].Field
		}
		return entries[i].Value < entries[j].Value
	})

	return &Policy{entries: entries}
}

// Require returns a copy of the policy with the requirement appended.
// The field name is canonicalized.
func (p *Policy) Require(field, value string) *Policy {
	var entries []Requirement
	if p != nil {
		entries = make([]Requirement, len(p.entries), len(p.entries)+1)
		copy(entries, p.entries)
	}
	entries = append(entries, Requirement{Field: CanonicalName(field), Value: value})
	return &Policy{entries: entries}
}

// Len returns the number of requirements.
func (p *Policy) Len() int {
	if p == nil {
		return 0
	}
	return len(p.entries)
}

// IsEmpty reports whether the policy has no requirement.
func (p *Policy) IsEmpty() bool {
	return p.Len() == 0
}

// Entries returns a copy of the requirements in evaluation order.
func (p *Policy) Entries() []Requirement {
	if p == nil {
		return nil
	}
	out := make([]Requirement, len(p.entries))
	copy(out, p.entries)
	return out
}

// String renders the policy as "O=Acme, OU=Payments".
func (p *Policy) String() string {
	if p.IsEmpty() {
		return "<empty>"
	}
	parts := make([]string, 0, len(p.entries))
	for _, entry := range p.entries {
		parts = append(parts, entry.Field+"="+entry.Value)
	}
	return strings.Join(parts, ", ")
}
