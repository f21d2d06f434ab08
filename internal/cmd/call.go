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
	"fmt"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/tochemey/tlsrpc/internal/config"
	"github.com/tochemey/tlsrpc/rpc"
)

func newCallCommand() *cobra.Command {
	callCmd := &cobra.Command{
		Use:   "call",
		Short: "Invoke a method on a server and print the JSON response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			method, _ := cmd.Flags().GetString("method")
			arg, _ := cmd.Flags().GetString("arg")

			file, err := config.Load(path)
			if err != nil {
				return err
			}

			logger, err := file.Logger()
			if err != nil {
				return err
			}

			clientConfig, err := file.ClientConfig(logger)
			if err != nil {
				return err
			}

			proxy, err := rpc.NewProxy(clientConfig, file.ProxyOptions()...)
			if err != nil {
				return err
			}
			defer func() { _ = proxy.Close() }()

			var request proto.Message = &emptypb.Empty{}
			if cmd.Flags().Changed("arg") {
				request = wrapperspb.String(arg)
			}

			response, err := proxy.Call(cmd.Context(), method, request)
			if err != nil {
				return err
			}

			out, err := protojson.Marshal(response)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}

	callCmd.Flags().StringP("method", "m", echoMethod, "method to invoke")
	callCmd.Flags().StringP("arg", "a", "", "string argument sent as a google.protobuf.StringValue")
	return callCmd
}
