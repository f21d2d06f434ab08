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
	"errors"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
)

const (
	legacyHeaderLen = 8
	headerLen       = 12
)

// Serializer turns protobuf messages into self-describing frames. The
// frame embeds the fully qualified message name so the receiver can
// resolve the concrete type through protoregistry.GlobalTypes.
//
// A frame is laid out as follows, all integers big-endian uint32:
//
//	[totalLen][nameLen][metaLen][type name][metadata][proto bytes]
//
// totalLen covers the whole frame, itself included. Frames written by
// older peers omit metaLen and the metadata section:
//
//	[totalLen][nameLen][type name][proto bytes]
//
// Unmarshal accepts both. Serializer is stateless and safe for
// concurrent use.
type Serializer struct{}

// NewSerializer returns a Serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Marshal encodes message and md into a single frame. md may be nil.
func (x *Serializer) Marshal(message proto.Message, md *Metadata) ([]byte, error) {
	name, err := messageName(message)
	if err != nil {
		return nil, err
	}

	var meta []byte
	if md != nil {
		if meta, err = md.MarshalBinary(); err != nil {
			return nil, err
		}
	}

	totalLen := headerLen + len(name) + len(meta) + proto.Size(message)
	out := make([]byte, 0, totalLen)

	var hdr [headerLen]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(totalLen))
	binary.BigEndian.PutUint32(hdr[4:8], uint32(len(name)))
	binary.BigEndian.PutUint32(hdr[8:12], uint32(len(meta)))
	out = append(out, hdr[:]...)
	out = append(out, name...)
	out = append(out, meta...)

	out, err = proto.MarshalOptions{}.MarshalAppend(out, message)
	if err != nil {
		return nil, errors.Join(ErrMarshalBinaryFailed, err)
	}
	return out, nil
}

// MarshalLegacy encodes message without a metadata section.
func (x *Serializer) MarshalLegacy(message proto.Message) ([]byte, error) {
	name, err := messageName(message)
	if err != nil {
		return nil, err
	}

	totalLen := legacyHeaderLen + len(name) + proto.Size(message)
	out := make([]byte, 0, totalLen)

	var hdr [legacyHeaderLen]byte
	binary.BigEndian.PutUint32(hdr[0:4], uint32(totalLen))
	binary.BigEndian.PutUint32(hdr[4:8], uint32(len(name)))
	out = append(out, hdr[:]...)
	out = append(out, name...)

	out, err = proto.MarshalOptions{}.MarshalAppend(out, message)
	if err != nil {
		return nil, errors.Join(ErrMarshalBinaryFailed, err)
	}
	return out, nil
}

// Unmarshal decodes a frame. The returned Metadata is nil for legacy
// frames and for frames written with a nil Metadata.
func (x *Serializer) Unmarshal(frame []byte) (proto.Message, *Metadata, protoreflect.FullName, error) {
	if len(frame) >= headerLen {
		msg, md, name, err := x.unmarshal(frame)
		if !errors.Is(err, ErrInvalidMessageLength) {
			return msg, md, name, err
		}
	}

	msg, name, err := x.unmarshalLegacy(frame)
	return msg, nil, name, err
}

func (x *Serializer) unmarshal(frame []byte) (proto.Message, *Metadata, protoreflect.FullName, error) {
	totalLen := int(binary.BigEndian.Uint32(frame[0:4]))
	if totalLen != len(frame) || totalLen < headerLen {
		return nil, nil, "", ErrInvalidMessageLength
	}

	nameLen := int(binary.BigEndian.Uint32(frame[4:8]))
	metaLen := int(binary.BigEndian.Uint32(frame[8:12]))
	if nameLen > totalLen || metaLen > totalLen || headerLen+nameLen+metaLen > totalLen {
		return nil, nil, "", ErrInvalidMessageLength
	}

	nameEnd := headerLen + nameLen
	msg, name, err := newMessage(frame[headerLen:nameEnd])
	if err != nil {
		return nil, nil, "", err
	}

	var md *Metadata
	if metaLen > 0 {
		md = NewMetadata()
		if err := md.UnmarshalBinary(frame[nameEnd : nameEnd+metaLen]); err != nil {
			return nil, nil, "", err
		}
	}

	if err := proto.Unmarshal(frame[nameEnd+metaLen:], msg); err != nil {
		return nil, nil, "", errors.Join(ErrUnmarshalBinaryFailed, err)
	}
	return msg, md, name, nil
}

func (x *Serializer) unmarshalLegacy(frame []byte) (proto.Message, protoreflect.FullName, error) {
	if len(frame) < legacyHeaderLen {
		return nil, "", ErrInvalidMessageLength
	}

	totalLen := int(binary.BigEndian.Uint32(frame[0:4]))
	if totalLen != len(frame) {
		return nil, "", ErrInvalidMessageLength
	}

	nameLen := int(binary.BigEndian.Uint32(frame[4:8]))
	if nameLen > totalLen || legacyHeaderLen+nameLen > totalLen {
		return nil, "", ErrInvalidMessageLength
	}

	msg, name, err := newMessage(frame[legacyHeaderLen : legacyHeaderLen+nameLen])
	if err != nil {
		return nil, "", err
	}

	if err := proto.Unmarshal(frame[legacyHeaderLen+nameLen:], msg); err != nil {
		return nil, "", errors.Join(ErrUnmarshalBinaryFailed, err)
	}
	return msg, name, nil
}

func messageName(message proto.Message) (protoreflect.FullName, error) {
	if message == nil {
		return "", ErrUnknownMessageType
	}
	name := proto.MessageName(message)
	if name == "" {
		return "", ErrUnknownMessageType
	}
	return name, nil
}

func newMessage(rawName []byte) (proto.Message, protoreflect.FullName, error) {
	name := protoreflect.FullName(rawName)
	if !name.IsValid() {
		return nil, "", ErrUnknownMessageType
	}

	msgType, err := protoregistry.GlobalTypes.FindMessageByName(name)
	if err != nil {
		return nil, "", errors.Join(ErrUnknownMessageType, err)
	}
	return msgType.New().Interface(), name, nil
}
