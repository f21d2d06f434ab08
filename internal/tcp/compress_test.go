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
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

func TestParseCompression(t *testing.T) {
	for name, expected := range map[string]Compression{
		"":        NoCompression,
		"none":    NoCompression,
		" ZSTD ":  ZstdCompression,
		"brotli":  BrotliCompression,
		"Brotli":  BrotliCompression,
		"zstd":    ZstdCompression,
		"NONE   ": NoCompression,
		"gzip":    GzipCompression,
	} {
		actual, err := ParseCompression(name)
		require.NoError(t, err, name)
		require.Equal(t, expected, actual, name)
	}

	_, err := ParseCompression("lz4")
	require.ErrorIs(t, err, ErrUnknownCompression)
}

func TestNewCompressionWrapper(t *testing.T) {
	wrapper, err := NewCompressionWrapper(NoCompression)
	require.NoError(t, err)
	require.Nil(t, wrapper)

	wrapper, err = NewCompressionWrapper(ZstdCompression)
	require.NoError(t, err)
	require.IsType(t, &ZstdConnWrapper{}, wrapper)

	wrapper, err = NewCompressionWrapper(BrotliCompression)
	require.NoError(t, err)
	require.IsType(t, &BrotliConnWrapper{}, wrapper)

	wrapper, err = NewCompressionWrapper(GzipCompression)
	require.NoError(t, err)
	require.IsType(t, &GzipConnWrapper{}, wrapper)

	_, err = NewCompressionWrapper("lz4")
	require.ErrorIs(t, err, ErrUnknownCompression)
}

func TestCompressedConn(t *testing.T) {
	zstdWrapper, err := NewZstdConnWrapper(
		WithZstdLevel(zstd.SpeedFastest),
		WithZstdWindow(1<<20),
		WithZstdDecoderMaxMemory(32<<20))
	require.NoError(t, err)

	gzipWrapper, err := NewGzipConnWrapper(WithGzipLevel(gzip.BestSpeed))
	require.NoError(t, err)

	wrappers := map[string]ConnWrapper{
		"zstd":   zstdWrapper,
		"brotli": NewBrotliConnWrapper(WithBrotliLevel(brotli.BestSpeed)),
		"gzip":   gzipWrapper,
	}

	for name, wrapper := range wrappers {
		t.Run(name, func(t *testing.T) {
			left, right := loopbackPair(t)

			client, err := wrapper.Wrap(left)
			require.NoError(t, err)
			server, err := wrapper.Wrap(right)
			require.NoError(t, err)

			payload := strings.Repeat("compressible payload ", 512)
			_, err = client.Write([]byte(payload))
			require.NoError(t, err)

			received := make([]byte, len(payload))
			_, err = io.ReadFull(server, received)
			require.NoError(t, err)
			require.Equal(t, payload, string(received))

			_, err = server.Write([]byte("ack"))
			require.NoError(t, err)
			ack := make([]byte, 3)
			_, err = io.ReadFull(client, ack)
			require.NoError(t, err)
			require.Equal(t, "ack", string(ack))

			require.Equal(t, left.LocalAddr(), client.LocalAddr())
			require.Equal(t, left.RemoteAddr(), client.RemoteAddr())

			require.NoError(t, client.Close())
			// closing twice is harmless
			_ = client.Close()
			_ = server.Close()
		})
	}
}

func TestInvalidZstdOptions(t *testing.T) {
	_, err := NewZstdConnWrapper(WithZstdWindow(3))
	require.ErrorIs(t, err, ErrZstdInvalidEncoderOpts)
}

func TestInvalidGzipLevel(t *testing.T) {
	_, err := NewGzipConnWrapper(WithGzipLevel(42))
	require.ErrorIs(t, err, ErrGzipInvalidLevel)
}

// loopbackPair returns both ends of a TCP connection over the loopback
// interface. The kernel buffers let each side write without a reader.
func loopbackPair(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- conn
	}()

	left, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	right, ok := <-accepted
	require.True(t, ok)

	t.Cleanup(func() {
		_ = left.Close()
		_ = right.Close()
	})
	return left, right
}
