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

package cmd

import (
	"context"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/tochemey/tlsrpc/rpc"
)

const (
	echoMethod     = "echo"
	identityMethod = "peer.identity"
)

// builtinService holds the methods served by the serve command.
var builtinService = rpc.ServiceFunc(func() map[string]rpc.Handler {
	return map[string]rpc.Handler{
		echoMethod:     echo,
		identityMethod: identity,
	}
})

// echo returns the string it receives.
func echo(_ context.Context, _ *rpc.Peer, request proto.Message) (proto.Message, error) {
	value, ok := request.(*wrapperspb.StringValue)
	if !ok {
		return nil, fmt.Errorf("echo expects a string, got %s", request.ProtoReflect().Descriptor().FullName())
	}
	return wrapperspb.String(value.GetValue()), nil
}

// identity describes the caller as the server sees it.
func identity(_ context.Context, peer *rpc.Peer, _ proto.Message) (proto.Message, error) {
	fields := make(map[string]any)
	for name, values := range peer.Fields().Map() {
		list := make([]any, len(values))
		for i, value := range values {
			list[i] = value
		}
		fields[name] = list
	}

	return structpb.NewStruct(map[string]any{
		"conn_id": peer.ID(),
		"address": peer.Address().String(),
		"state":   peer.State().String(),
		"fields":  fields,
	})
}
