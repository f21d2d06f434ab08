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
	"io"
	"net"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// GzipConnWrapper wraps connections with gzip compression, for peers
// that cannot speak zstd or brotli. Writers and readers are pooled.
type GzipConnWrapper struct {
	level      int
	writerPool sync.Pool
	readerPool sync.Pool
}

var (
	_ ConnWrapper = (*GzipConnWrapper)(nil)
	_ flushWriter = (*gzip.Writer)(nil)
	_ io.Reader   = (*lazyGzipReader)(nil)
)

type gzipConfig struct {
	level int
}

// GzipOption configures NewGzipConnWrapper.
type GzipOption func(*gzipConfig)

// WithGzipLevel sets the compression level, from gzip.BestSpeed to
// gzip.BestCompression.
func WithGzipLevel(level int) GzipOption {
	return func(c *gzipConfig) { c.level = level }
}

// NewGzipConnWrapper creates a GzipConnWrapper. An invalid level is
// reported here rather than on the first connection.
func NewGzipConnWrapper(opts ...GzipOption) (*GzipConnWrapper, error) {
	cfg := gzipConfig{level: gzip.DefaultCompression}
	for _, o := range opts {
		o(&cfg)
	}

	writer, err := gzip.NewWriterLevel(nil, cfg.level)
	if err != nil {
		return nil, ErrGzipInvalidLevel
	}

	g := &GzipConnWrapper{level: cfg.level}
	g.writerPool.Put(writer)
	g.writerPool.New = func() any {
		w, err := gzip.NewWriterLevel(nil, g.level)
		if err != nil {
			return nil
		}
		return w
	}
	g.readerPool.New = func() any {
		return new(gzip.Reader)
	}
	return g, nil
}

// Wrap applies gzip compression to conn.
func (g *GzipConnWrapper) Wrap(conn net.Conn) (net.Conn, error) {
	gw, ok := g.writerPool.Get().(*gzip.Writer)
	if !ok || gw == nil {
		return nil, ErrGzipWriterInit
	}

	gr, ok := g.readerPool.Get().(*gzip.Reader)
	if !ok || gr == nil {
		g.writerPool.Put(gw)
		return nil, ErrGzipReaderInit
	}

	gw.Reset(conn)
	reader := &lazyGzipReader{raw: conn, reader: gr}

	closer := func() error {
		closeErr := gw.Close()
		gw.Reset(nil)
		g.writerPool.Put(gw)
		g.readerPool.Put(gr)
		return closeErr
	}

	return newCompressedConn(conn, reader, gw, closer), nil
}

// lazyGzipReader reads the gzip header on the first Read. Resetting the
// reader up front would block until the peer writes.
type lazyGzipReader struct {
	raw     io.Reader
	reader  *gzip.Reader
	once    sync.Once
	initErr error
}

func (r *lazyGzipReader) Read(p []byte) (int, error) {
	r.once.Do(func() {
		r.initErr = r.reader.Reset(r.raw)
		if r.initErr == nil {
			r.reader.Multistream(false)
		}
	})
	if r.initErr != nil {
		return 0, r.initErr
	}
	return r.reader.Read(p)
}
