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
	"encoding/binary"
	"io"
	"math/bits"
	"sync"
)

// DefaultMaxFrameSize bounds a single frame when no limit is configured.
const DefaultMaxFrameSize uint32 = 16 << 20

const (
	minBucketShift = 8  // 256 B
	maxBucketShift = 22 // 4 MiB
	numBuckets     = maxBucketShift - minBucketShift + 1
)

// FramePool hands out frame buffers from power-of-two buckets between
// 256 B and 4 MiB. Larger buffers are allocated and left to the GC.
type FramePool struct {
	pools [numBuckets]sync.Pool
}

// NewFramePool creates a FramePool.
func NewFramePool() *FramePool {
	pool := &FramePool{}
	for i := range pool.pools {
		size := 1 << (minBucketShift + i)
		pool.pools[i] = sync.Pool{
			New: func() any {
				buf := make([]byte, size)
				return &buf
			},
		}
	}
	return pool
}

// Get returns a buffer of length n.
func (x *FramePool) Get(n int) []byte {
	idx := bucketIndex(n)
	if idx >= numBuckets {
		return make([]byte, n)
	}
	bp := x.pools[idx].Get().(*[]byte)
	return (*bp)[:n]
}

// Put returns a buffer obtained from Get.
func (x *FramePool) Put(buf []byte) {
	c := cap(buf)
	idx := bucketIndexExact(c)
	if idx < 0 {
		return
	}
	buf = buf[:c]
	x.pools[idx].Put(&buf)
}

// bucketIndex returns the smallest bucket holding n bytes, or numBuckets
// when n is larger than every bucket.
func bucketIndex(n int) int {
	if n <= 1<<minBucketShift {
		return 0
	}
	idx := bits.Len(uint(n-1)) - minBucketShift
	if idx >= numBuckets {
		return numBuckets
	}
	return idx
}

// bucketIndexExact returns the bucket whose size is exactly c, or -1.
func bucketIndexExact(c int) int {
	if c == 0 || c&(c-1) != 0 {
		return -1
	}
	idx := bits.Len(uint(c)) - 1 - minBucketShift
	if idx < 0 || idx >= numBuckets {
		return -1
	}
	return idx
}

// ReadFrame reads one frame from r into a buffer taken from pool. The
// caller returns the buffer with pool.Put once the frame is decoded.
// Frames larger than maxSize yield ErrFrameTooLarge without reading the
// body; zero maxSize means DefaultMaxFrameSize.
func ReadFrame(r io.Reader, pool *FramePool, maxSize uint32) ([]byte, error) {
	if maxSize == 0 {
		maxSize = DefaultMaxFrameSize
	}

	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}

	totalLen := binary.BigEndian.Uint32(hdr[:])
	if totalLen < legacyHeaderLen {
		return nil, ErrInvalidMessageLength
	}
	if totalLen > maxSize {
		return nil, ErrFrameTooLarge
	}

	frame := pool.Get(int(totalLen))
	copy(frame, hdr[:])
	if _, err := io.ReadFull(r, frame[4:]); err != nil {
		pool.Put(frame)
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return frame, nil
}

// WriteFrame writes a complete frame to w.
func WriteFrame(w io.Writer, frame []byte) error {
	_, err := w.Write(frame)
	return err
}
