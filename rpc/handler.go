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

package rpc

import (
	"context"

	"google.golang.org/protobuf/proto"
)

// Handler serves one method. A nil message with a nil error is answered
// with an empty message. A non-nil error is reported to the caller with
// StatusError and its message. Requests sent through Transport.Notify get
// no response whatever the handler returns.
type Handler func(ctx context.Context, peer *Peer, request proto.Message) (proto.Message, error)

// Service groups the methods a Server exposes.
type Service interface {
	// Methods returns the handlers keyed by method name.
	Methods() map[string]Handler
}

// ServiceFunc adapts a function returning a method table to a Service.
type ServiceFunc func() map[string]Handler

// Methods implements Service.
func (f ServiceFunc) Methods() map[string]Handler {
	return f()
}
