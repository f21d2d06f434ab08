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
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

// ConnWrapper transforms a net.Conn, typically by adding a compression
// layer. Implementations must be safe to call from multiple goroutines.
type ConnWrapper interface {
	Wrap(conn net.Conn) (net.Conn, error)
}

// Compression names a stream compression applied over the TLS session.
type Compression string

const (
	// NoCompression sends bytes as is.
	NoCompression Compression = "none"
	// ZstdCompression wraps connections with Zstandard.
	ZstdCompression Compression = "zstd"
	// BrotliCompression wraps connections with Brotli.
	BrotliCompression Compression = "brotli"
	// GzipCompression wraps connections with gzip.
	GzipCompression Compression = "gzip"
)

// ParseCompression maps a name onto a Compression. An empty name means
// NoCompression.
func ParseCompression(name string) (Compression, error) {
	switch Compression(strings.ToLower(strings.TrimSpace(name))) {
	case "", NoCompression:
		return NoCompression, nil
	case ZstdCompression:
		return ZstdCompression, nil
	case BrotliCompression:
		return BrotliCompression, nil
	case GzipCompression:
		return GzipCompression, nil
	default:
		return NoCompression, fmt.Errorf("%w: %q", ErrUnknownCompression, name)
	}
}

// NewCompressionWrapper returns the ConnWrapper of a Compression, or nil
// for NoCompression.
func NewCompressionWrapper(compression Compression) (ConnWrapper, error) {
	switch compression {
	case "", NoCompression:
		return nil, nil
	case ZstdCompression:
		return NewZstdConnWrapper()
	case BrotliCompression:
		return NewBrotliConnWrapper(), nil
	case GzipCompression:
		return NewGzipConnWrapper()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, compression)
	}
}

type flushWriter interface {
	io.Writer
	Flush() error
}

// compressedConn flushes after every write so that a request frame is
// never held back in the encoder while the peer waits for it.
type compressedConn struct {
	raw       net.Conn
	reader    io.Reader
	writer    flushWriter
	closer    func() error
	closeOnce sync.Once
	closeErr  error
}

func newCompressedConn(raw net.Conn, r io.Reader, w flushWriter, closer func() error) *compressedConn {
	return &compressedConn{
		raw:    raw,
		reader: r,
		writer: w,
		closer: closer,
	}
}

func (c *compressedConn) Read(p []byte) (int, error) {
	return c.reader.Read(p)
}

func (c *compressedConn) Write(p []byte) (int, error) {
	n, err := c.writer.Write(p)
	if err != nil {
		return n, err
	}
	if ferr := c.writer.Flush(); ferr != nil {
		return n, ferr
	}
	return n, nil
}

// Close releases the codec and closes the underlying connection. It is
// safe to call more than once.
func (c *compressedConn) Close() error {
	c.closeOnce.Do(func() {
		cerr := c.closer()
		nerr := c.raw.Close()
		if cerr != nil {
			c.closeErr = cerr
			return
		}
		c.closeErr = nerr
	})
	return c.closeErr
}

func (c *compressedConn) LocalAddr() net.Addr                { return c.raw.LocalAddr() }
func (c *compressedConn) RemoteAddr() net.Addr               { return c.raw.RemoteAddr() }
func (c *compressedConn) SetDeadline(t time.Time) error      { return c.raw.SetDeadline(t) }
func (c *compressedConn) SetReadDeadline(t time.Time) error  { return c.raw.SetReadDeadline(t) }
func (c *compressedConn) SetWriteDeadline(t time.Time) error { return c.raw.SetWriteDeadline(t) }
