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

// ConnState is the admission state of a server connection.
//
//	ACCEPTED -> HANDSHAKEN -> VERIFIED
//	                       -> REJECTED
//
// A connection whose handshake fails is rejected without reaching
// HANDSHAKEN.
type ConnState int32

const (
	// StateAccepted is the state of a connection that has been wrapped in
	// a TLS session and whose handshake has not completed.
	StateAccepted ConnState = iota
	// StateHandshaken is the state of a connection whose handshake completed.
	StateHandshaken
	// StateVerified is the state of a connection admitted to the dispatcher.
	StateVerified
	// StateRejected is the state of a connection that has been refused.
	StateRejected
)

// String implements fmt.Stringer.
func (s ConnState) String() string {
	switch s {
	case StateAccepted:
		return "ACCEPTED"
	case StateHandshaken:
		return "HANDSHAKEN"
	case StateVerified:
		return "VERIFIED"
	case StateRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}
