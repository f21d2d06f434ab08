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

package wire

import (
	"context"
	"encoding/binary"
	"maps"
	"math"
	"slices"
	"time"
)

// Well-known header keys.
const (
	// PathHeader carries the endpoint path a request is addressed to.
	PathHeader = ":path"
	// MethodHeader carries the name of the method to invoke.
	MethodHeader = ":method"
	// StatusHeader carries the outcome of a call on responses.
	StatusHeader = ":status"
	// ErrorHeader carries the error message of a failed call.
	ErrorHeader = ":error"
	// OnewayHeader marks a request that expects no response.
	OnewayHeader = ":oneway"
)

type metadataKey struct{}

// Metadata carries headers and an optional deadline alongside a message.
// The deadline is kept as UnixNano, zero meaning none.
type Metadata struct {
	headers      map[string]string
	deadlineNano int64
}

// NewMetadata creates an empty Metadata.
func NewMetadata() *Metadata {
	return &Metadata{
		headers: make(map[string]string),
	}
}

// Set adds or replaces a header.
func (m *Metadata) Set(key, value string) {
	m.headers[key] = value
}

// Get returns the value of a header.
func (m *Metadata) Get(key string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.headers[key]
	return v, ok
}

// Len returns the number of headers.
func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.headers)
}

// Headers returns a copy of the headers.
func (m *Metadata) Headers() map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return maps.Clone(m.headers)
}

// SetDeadline sets the deadline of the call. A zero time clears it.
func (m *Metadata) SetDeadline(d time.Time) {
	if d.IsZero() {
		m.deadlineNano = 0
		return
	}
	m.deadlineNano = d.UnixNano()
}

// Deadline returns the deadline if one is set.
func (m *Metadata) Deadline() (time.Time, bool) {
	if m == nil || m.deadlineNano == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, m.deadlineNano), true
}

// MarshalBinary encodes the metadata as
//
//	[u16 count][u16 keyLen][key][u16 valLen][val]...[u64 deadline]
//
// Headers are written in key order. A key or value longer than 65535
// bytes, or more than 65535 headers, yields ErrInvalidMetadata.
func (m *Metadata) MarshalBinary() ([]byte, error) {
	if len(m.headers) > math.MaxUint16 {
		return nil, ErrInvalidMetadata
	}

	size := 10
	for k, v := range m.headers {
		if len(k) > math.MaxUint16 || len(v) > math.MaxUint16 {
			return nil, ErrInvalidMetadata
		}
		size += 4 + len(k) + len(v)
	}

	buf := make([]byte, size)
	binary.BigEndian.PutUint16(buf, uint16(len(m.headers)))
	pos := 2

	for _, k := range slices.Sorted(maps.Keys(m.headers)) {
		v := m.headers[k]
		binary.BigEndian.PutUint16(buf[pos:], uint16(len(k)))
		pos += 2
		pos += copy(buf[pos:], k)

		binary.BigEndian.PutUint16(buf[pos:], uint16(len(v)))
		pos += 2
		pos += copy(buf[pos:], v)
	}

	binary.BigEndian.PutUint64(buf[pos:], uint64(m.deadlineNano))
	return buf, nil
}

// UnmarshalBinary decodes metadata produced by MarshalBinary. Header
// strings are copied out of data, which can be reused afterwards.
func (m *Metadata) UnmarshalBinary(data []byte) error {
	if len(data) < 10 {
		return ErrInvalidMetadata
	}

	count := int(binary.BigEndian.Uint16(data))
	pos := 2
	m.headers = make(map[string]string, count)

	readString := func() (string, bool) {
		if pos+2 > len(data) {
			return "", false
		}
		n := int(binary.BigEndian.Uint16(data[pos:]))
		pos += 2
		if pos+n > len(data) {
			return "", false
		}
		s := string(data[pos : pos+n])
		pos += n
		return s, true
	}

	for range count {
		key, ok := readString()
		if !ok {
			return ErrInvalidMetadata
		}
		val, ok := readString()
		if !ok {
			return ErrInvalidMetadata
		}
		m.headers[key] = val
	}

	if pos+8 != len(data) {
		return ErrInvalidMetadata
	}
	m.deadlineNano = int64(binary.BigEndian.Uint64(data[pos:]))
	return nil
}

// ToContext returns a child of parent carrying the metadata. When a
// deadline is set it bounds the returned context. The caller must call
// the returned cancel function.
func (m *Metadata) ToContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := parent, context.CancelFunc(func() {})
	if deadline, ok := m.Deadline(); ok {
		ctx, cancel = context.WithDeadline(parent, deadline)
	}
	return context.WithValue(ctx, metadataKey{}, m), cancel
}

// FromContext returns the metadata attached to ctx.
func FromContext(ctx context.Context) (*Metadata, bool) {
	m, ok := ctx.Value(metadataKey{}).(*Metadata)
	return m, ok
}

// ContextWithMetadata attaches md to ctx without touching its deadline.
func ContextWithMetadata(ctx context.Context, md *Metadata) context.Context {
	return context.WithValue(ctx, metadataKey{}, md)
}
