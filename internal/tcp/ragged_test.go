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
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

type truncatedConn struct {
	net.Conn
	err error
}

func (c *truncatedConn) Read(p []byte) (int, error) {
	return copy(p, "x"), c.err
}

func TestRaggedEOFWrapper(t *testing.T) {
	t.Run("mid-record close reads as EOF", func(t *testing.T) {
		conn, err := RaggedEOFWrapper{}.Wrap(&truncatedConn{err: fmt.Errorf("tls: %w", io.ErrUnexpectedEOF)})
		require.NoError(t, err)

		n, err := conn.Read(make([]byte, 4))
		require.Equal(t, 1, n)
		require.ErrorIs(t, err, io.EOF)
		require.False(t, IsRaggedEOF(err))
	})
	t.Run("other errors pass through", func(t *testing.T) {
		boom := errors.New("boom")
		conn, err := RaggedEOFWrapper{}.Wrap(&truncatedConn{err: boom})
		require.NoError(t, err)

		_, err = conn.Read(make([]byte, 4))
		require.ErrorIs(t, err, boom)
	})
	t.Run("IsRaggedEOF", func(t *testing.T) {
		require.True(t, IsRaggedEOF(io.ErrUnexpectedEOF))
		require.True(t, IsRaggedEOF(fmt.Errorf("read: %w", io.ErrUnexpectedEOF)))
		require.False(t, IsRaggedEOF(io.EOF))
		require.False(t, IsRaggedEOF(nil))
	})
}
