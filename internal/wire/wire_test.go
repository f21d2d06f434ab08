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
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestMetadata(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		md := NewMetadata()
		md.Set(PathHeader, "/RPC2")
		md.Set(MethodHeader, "echo")
		deadline := time.Now().Add(time.Minute).Truncate(time.Nanosecond)
		md.SetDeadline(deadline)

		data, err := md.MarshalBinary()
		require.NoError(t, err)

		decoded := NewMetadata()
		require.NoError(t, decoded.UnmarshalBinary(data))
		assert.Equal(t, md.Headers(), decoded.Headers())

		actual, ok := decoded.Deadline()
		require.True(t, ok)
		assert.True(t, deadline.Equal(actual))

		// the decoded strings do not alias the input
		for i := range data {
			data[i] = 0
		}
		path, ok := decoded.Get(PathHeader)
		require.True(t, ok)
		assert.Equal(t, "/RPC2", path)
	})
	t.Run("deterministic encoding", func(t *testing.T) {
		md := NewMetadata()
		for _, key := range []string{"c", "a", "b", "d"} {
			md.Set(key, key)
		}
		first, err := md.MarshalBinary()
		require.NoError(t, err)
		for range 10 {
			again, err := md.MarshalBinary()
			require.NoError(t, err)
			require.Equal(t, first, again)
		}
	})
	t.Run("no deadline", func(t *testing.T) {
		md := NewMetadata()
		md.SetDeadline(time.Now())
		md.SetDeadline(time.Time{})
		_, ok := md.Deadline()
		assert.False(t, ok)
	})
	t.Run("nil metadata", func(t *testing.T) {
		var md *Metadata
		_, ok := md.Get(PathHeader)
		assert.False(t, ok)
		assert.Zero(t, md.Len())
		assert.Empty(t, md.Headers())
		_, ok = md.Deadline()
		assert.False(t, ok)
	})
	t.Run("oversized header", func(t *testing.T) {
		md := NewMetadata()
		md.Set("key", string(make([]byte, 1<<16)))
		_, err := md.MarshalBinary()
		require.ErrorIs(t, err, ErrInvalidMetadata)
	})
	t.Run("truncated input", func(t *testing.T) {
		md := NewMetadata()
		md.Set("key", "value")
		data, err := md.MarshalBinary()
		require.NoError(t, err)

		for _, size := range []int{0, 5, 9, len(data) - 1} {
			require.ErrorIs(t, NewMetadata().UnmarshalBinary(data[:size]), ErrInvalidMetadata, size)
		}
		require.ErrorIs(t, NewMetadata().UnmarshalBinary(append(data, 0)), ErrInvalidMetadata)
	})
	t.Run("context", func(t *testing.T) {
		md := NewMetadata()
		md.Set("key", "value")

		ctx, cancel := md.ToContext(context.Background())
		defer cancel()
		_, hasDeadline := ctx.Deadline()
		assert.False(t, hasDeadline)

		actual, ok := FromContext(ctx)
		require.True(t, ok)
		assert.Same(t, md, actual)

		deadline := time.Now().Add(time.Hour)
		md.SetDeadline(deadline)
		ctx, cancel = md.ToContext(context.Background())
		defer cancel()
		actualDeadline, hasDeadline := ctx.Deadline()
		require.True(t, hasDeadline)
		assert.True(t, actualDeadline.Equal(time.Unix(0, deadline.UnixNano())))

		_, ok = FromContext(context.Background())
		assert.False(t, ok)
		actual, ok = FromContext(ContextWithMetadata(context.Background(), md))
		require.True(t, ok)
		assert.Same(t, md, actual)
	})
}

func TestSerializer(t *testing.T) {
	serializer := NewSerializer()

	t.Run("with metadata", func(t *testing.T) {
		md := NewMetadata()
		md.Set(MethodHeader, "echo")

		frame, err := serializer.Marshal(wrapperspb.String("hello"), md)
		require.NoError(t, err)
		require.EqualValues(t, len(frame), binary.BigEndian.Uint32(frame))

		msg, decoded, name, err := serializer.Unmarshal(frame)
		require.NoError(t, err)
		assert.EqualValues(t, "google.protobuf.StringValue", name)
		assert.True(t, proto.Equal(wrapperspb.String("hello"), msg))
		method, ok := decoded.Get(MethodHeader)
		require.True(t, ok)
		assert.Equal(t, "echo", method)
	})
	t.Run("without metadata", func(t *testing.T) {
		frame, err := serializer.Marshal(&emptypb.Empty{}, nil)
		require.NoError(t, err)

		msg, md, _, err := serializer.Unmarshal(frame)
		require.NoError(t, err)
		assert.Nil(t, md)
		assert.IsType(t, &emptypb.Empty{}, msg)
	})
	t.Run("legacy frame", func(t *testing.T) {
		frame, err := serializer.MarshalLegacy(wrapperspb.Int64(42))
		require.NoError(t, err)

		msg, md, name, err := serializer.Unmarshal(frame)
		require.NoError(t, err)
		assert.Nil(t, md)
		assert.EqualValues(t, "google.protobuf.Int64Value", name)
		assert.True(t, proto.Equal(wrapperspb.Int64(42), msg))
	})
	t.Run("nil message", func(t *testing.T) {
		_, err := serializer.Marshal(nil, nil)
		require.ErrorIs(t, err, ErrUnknownMessageType)
		_, err = serializer.MarshalLegacy(nil)
		require.ErrorIs(t, err, ErrUnknownMessageType)
	})
	t.Run("unknown type", func(t *testing.T) {
		frame, err := serializer.Marshal(wrapperspb.String("x"), nil)
		require.NoError(t, err)
		// rename google.protobuf.StringValue to google.protobuf.StringValuX
		frame[headerLen+len("google.protobuf.StringValue")-1] = 'X'

		_, _, _, err = serializer.Unmarshal(frame)
		require.ErrorIs(t, err, ErrUnknownMessageType)
	})
	t.Run("malformed frames", func(t *testing.T) {
		frame, err := serializer.Marshal(wrapperspb.String("hello"), nil)
		require.NoError(t, err)

		_, _, _, err = serializer.Unmarshal(frame[:4])
		require.ErrorIs(t, err, ErrInvalidMessageLength)

		_, _, _, err = serializer.Unmarshal(frame[:len(frame)-1])
		require.ErrorIs(t, err, ErrInvalidMessageLength)
	})
}

func TestReadFrame(t *testing.T) {
	serializer := NewSerializer()
	pool := NewFramePool()

	t.Run("reads consecutive frames", func(t *testing.T) {
		var buf bytes.Buffer
		for _, value := range []string{"one", "two"} {
			frame, err := serializer.Marshal(wrapperspb.String(value), nil)
			require.NoError(t, err)
			require.NoError(t, WriteFrame(&buf, frame))
		}

		for _, value := range []string{"one", "two"} {
			frame, err := ReadFrame(&buf, pool, 0)
			require.NoError(t, err)
			msg, _, _, err := serializer.Unmarshal(frame)
			pool.Put(frame)
			require.NoError(t, err)
			assert.Equal(t, value, msg.(*wrapperspb.StringValue).GetValue())
		}

		_, err := ReadFrame(&buf, pool, 0)
		require.ErrorIs(t, err, io.EOF)
	})
	t.Run("frame too large", func(t *testing.T) {
		frame, err := serializer.Marshal(wrapperspb.String("a long enough value"), nil)
		require.NoError(t, err)

		_, err = ReadFrame(bytes.NewReader(frame), pool, 16)
		require.ErrorIs(t, err, ErrFrameTooLarge)
	})
	t.Run("truncated frame", func(t *testing.T) {
		frame, err := serializer.Marshal(wrapperspb.String("hello"), nil)
		require.NoError(t, err)

		_, err = ReadFrame(bytes.NewReader(frame[:len(frame)-2]), pool, 0)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})
	t.Run("length below header", func(t *testing.T) {
		_, err := ReadFrame(bytes.NewReader([]byte{0, 0, 0, 3}), pool, 0)
		require.ErrorIs(t, err, ErrInvalidMessageLength)
	})
}

func TestFramePool(t *testing.T) {
	pool := NewFramePool()

	small := pool.Get(10)
	assert.Len(t, small, 10)
	assert.Equal(t, 256, cap(small))
	pool.Put(small)

	mid := pool.Get(1000)
	assert.Len(t, mid, 1000)
	assert.Equal(t, 1024, cap(mid))
	pool.Put(mid)

	huge := pool.Get(5 << 20)
	assert.Len(t, huge, 5<<20)
	pool.Put(huge)

	assert.Equal(t, -1, bucketIndexExact(300))
	assert.Equal(t, 0, bucketIndexExact(256))
	assert.Equal(t, numBuckets, bucketIndex(8<<20))
}
