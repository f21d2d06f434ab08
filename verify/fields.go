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
	"crypto/x509"
	"fmt"
	"strings"
)

// Fields holds the subject attributes of a peer certificate keyed by
// canonical attribute name. Attributes keep the order in which they
// appear in the certificate and a name may carry several values.
//
// A nil *Fields means the peer did not present a certificate.
type Fields struct {
	order  []string
	values map[string][]string
}

// NewFields builds Fields from name/value pairs. Names are canonicalized
// and a trailing name without a value is ignored.
func NewFields(pairs ...string) *Fields {
	f := &Fields{values: make(map[string][]string, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		f.add(CanonicalName(pairs[i]), pairs[i+1])
	}
	return f
}

// ExtractFields reads the subject attributes of cert. Every attribute
// value must be a string; anything else is reported as ErrMalformedSubject.
func ExtractFields(cert *x509.Certificate) (*Fields, error) {
	if cert == nil {
		return nil, ErrNoCertificate
	}

	names := cert.Subject.Names
	f := &Fields{values: make(map[string][]string, len(names))}
	for _, atv := range names {
		value, ok := atv.Value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s holds %T", ErrMalformedSubject, atv.Type.String(), atv.Value)
		}
		f.add(nameForOID(atv.Type), value)
	}
	return f, nil
}

func (f *Fields) add(name, value string) {
	if _, ok := f.values[name]; !ok {
		f.order = append(f.order, name)
	}
	f.values[name] = append(f.values[name], value)
}

// Get returns the values recorded for name. The name is canonicalized
// first, so Get("organizationName") and Get("O") are equivalent.
func (f *Fields) Get(name string) ([]string, bool) {
	if f == nil {
		return nil, false
	}
	values, ok := f.values[CanonicalName(name)]
	if !ok {
		return nil, false
	}
	out := make([]string, len(values))
	copy(out, values)
	return out, true
}

// Has reports whether name is present.
func (f *Fields) Has(name string) bool {
	if f == nil {
		return false
	}
	_, ok := f.values[CanonicalName(name)]
	return ok
}

// Names returns the attribute names in certificate order.
func (f *Fields) Names() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Len returns the number of distinct attribute names.
func (f *Fields) Len() int {
	if f == nil {
		return 0
	}
	return len(f.order)
}

// Map returns a copy of the attributes.
func (f *Fields) Map() map[string][]string {
	if f == nil {
		return nil
	}
	out := make(map[string][]string, len(f.values))
	for name, values := range f.values {
		out[name] = append([]string(nil), values...)
	}
	return out
}

// String renders the attributes as "CN=a, O=b" in certificate order.
func (f *Fields) String() string {
	if f == nil {
		return "<none>"
	}

	var sb strings.Builder
	for _, name := range f.order {
		for _, value := range f.values[name] {
			if sb.Len() > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(name)
			sb.WriteByte('=')
			sb.WriteString(value)
		}
	}
	return sb.String()
}
