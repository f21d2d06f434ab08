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

package tcp

import (
	"errors"
	"io"
	"net"
)

// RaggedEOFWrapper controls how a TLS peer closing the TCP socket without
// sending close_notify is reported to readers.
//
// crypto/tls reports such a ragged close as io.EOF when it happens on a
// record boundary and as io.ErrUnexpectedEOF when a record was cut short.
// The wrapper turns the latter into io.EOF so that callers see an ordinary
// end of stream.
type RaggedEOFWrapper struct{}

var _ ConnWrapper = RaggedEOFWrapper{}

// Wrap implements ConnWrapper.
func (RaggedEOFWrapper) Wrap(conn net.Conn) (net.Conn, error) {
	return &raggedConn{Conn: conn}, nil
}

type raggedConn struct {
	net.Conn
}

func (c *raggedConn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return n, io.EOF
	}
	return n, err
}

// IsRaggedEOF reports whether err is the error crypto/tls returns when the
// peer closed the connection in the middle of a record.
func IsRaggedEOF(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF)
}
