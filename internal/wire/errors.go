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

import "errors"

var (
	// ErrFrameTooLarge is returned when a frame exceeds the configured maximum size.
	ErrFrameTooLarge = errors.New("wire: frame exceeds maximum size")

	// ErrUnknownMessageType is returned when a message is nil, has no type
	// name, or names a type missing from the protobuf registry.
	ErrUnknownMessageType = errors.New("wire: unknown message type")

	// ErrMarshalBinaryFailed wraps a protobuf marshalling failure.
	ErrMarshalBinaryFailed = errors.New("wire: failed to marshal message")

	// ErrUnmarshalBinaryFailed wraps a protobuf unmarshalling failure.
	ErrUnmarshalBinaryFailed = errors.New("wire: failed to unmarshal message")

	// ErrInvalidMessageLength is returned when the length fields of a frame
	// do not agree with its size.
	ErrInvalidMessageLength = errors.New("wire: invalid message length")

	// ErrInvalidMetadata is returned when the metadata section of a frame is
	// truncated or a header does not fit its length field.
	ErrInvalidMetadata = errors.New("wire: invalid metadata")
)
