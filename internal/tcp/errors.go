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

import "errors"

// Pool errors.
var (
	// ErrPoolStopped is returned when submitting a task to a stopped pool.
	ErrPoolStopped = errors.New("tcp: worker pool is stopped")
	// ErrPoolNotStarted is returned when operating on a pool that has not been started.
	ErrPoolNotStarted = errors.New("tcp: worker pool must be started first")
)

// Client errors.
var (
	// ErrClientClosed is returned when using a client that has been closed.
	ErrClientClosed = errors.New("tcp: client is closed")
	// ErrHandshakeFailed is returned when the TLS handshake with the remote
	// endpoint fails, including certificate chain validation failures.
	ErrHandshakeFailed = errors.New("tcp: tls handshake failed")
)

// Server errors.
var (
	// ErrNoTLSConfig is returned when TLS is enabled without a TLS configuration.
	ErrNoTLSConfig = errors.New("tcp: no TLS config set; use WithTLSConfig")
	// ErrInvalidListener is returned when the net.Listener is not a *net.TCPListener.
	ErrInvalidListener = errors.New("tcp: listener must be *net.TCPListener")
	// ErrNoListener is returned when Serve is called before Listen.
	ErrNoListener = errors.New("tcp: no valid listener; call Listen or ListenTLS first")
	// ErrNotTLS is returned when a TLS operation is requested on a plain connection.
	ErrNotTLS = errors.New("tcp: connection is not a TLS connection")
)

// Compression errors.
var (
	// ErrZstdEncoderInit is returned when the zstd encoder cannot be created from the pool.
	ErrZstdEncoderInit = errors.New("tcp: zstd encoder initialization failed")
	// ErrZstdDecoderInit is returned when the zstd decoder cannot be created from the pool.
	ErrZstdDecoderInit = errors.New("tcp: zstd decoder initialization failed")
	// ErrZstdInvalidEncoderOpts is returned when the zstd encoder options are invalid.
	ErrZstdInvalidEncoderOpts = errors.New("tcp: invalid zstd encoder options")
	// ErrZstdInvalidDecoderOpts is returned when the zstd decoder options are invalid.
	ErrZstdInvalidDecoderOpts = errors.New("tcp: invalid zstd decoder options")
	// ErrBrotliWriterInit is returned when the brotli writer cannot be obtained from the pool.
	ErrBrotliWriterInit = errors.New("tcp: brotli writer initialization failed")
	// ErrBrotliReaderInit is returned when the brotli reader cannot be obtained from the pool.
	ErrBrotliReaderInit = errors.New("tcp: brotli reader initialization failed")
	// ErrGzipInvalidLevel is returned when the gzip compression level is out of range.
	ErrGzipInvalidLevel = errors.New("tcp: invalid gzip compression level")
	// ErrGzipWriterInit is returned when the gzip writer cannot be obtained from the pool.
	ErrGzipWriterInit = errors.New("tcp: gzip writer initialization failed")
	// ErrGzipReaderInit is returned when the gzip reader cannot be obtained from the pool.
	ErrGzipReaderInit = errors.New("tcp: gzip reader initialization failed")
	// ErrUnknownCompression is returned when a compression name is not supported.
	ErrUnknownCompression = errors.New("tcp: unknown compression")
)
