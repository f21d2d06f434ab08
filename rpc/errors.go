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
	"errors"
	"fmt"
)

var (
	// ErrConnectionFailed is returned when a connection to the server cannot
	// be established, including TLS handshake and chain validation failures.
	ErrConnectionFailed = errors.New("rpc: connection failed")
	// ErrMalformedResponse is returned by a strict client when a response
	// frame carries no status.
	ErrMalformedResponse = errors.New("rpc: malformed response")
	// ErrInvalidMethodName is returned when registering a method whose name
	// is not made of letters, digits, dots, dashes and underscores.
	ErrInvalidMethodName = errors.New("rpc: invalid method name")
	// ErrMethodExists is returned when a method is registered twice.
	ErrMethodExists = errors.New("rpc: method already registered")
	// ErrNilHandler is returned when registering a nil Handler.
	ErrNilHandler = errors.New("rpc: handler is nil")
	// ErrServerStarted is returned when the server is started twice.
	ErrServerStarted = errors.New("rpc: server already started")
	// ErrServerNotStarted is returned when stopping a server that is not running.
	ErrServerNotStarted = errors.New("rpc: server not started")
	// ErrInvalidURI is returned when the client target is not a tls:// or
	// https:// URI with a host and a port.
	ErrInvalidURI = errors.New("rpc: invalid target URI")
	// ErrTransportClosed is returned when calling through a closed Transport.
	ErrTransportClosed = errors.New("rpc: transport closed")
)

// Error is the error returned to a caller when the server answered a call
// with a status other than StatusOK.
type Error struct {
	Status  Status
	Message string
}

var _ error = (*Error)(nil)

// Error implements error.
func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rpc: remote call failed with status %s", e.Status)
	}
	return fmt.Sprintf("rpc: remote call failed with status %s: %s", e.Status, e.Message)
}

// IsRemoteError reports whether err carries an Error sent by the server.
func IsRemoteError(err error) bool {
	var remote *Error
	return errors.As(err, &remote)
}
