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

import "net"

// ListenConfig holds the socket options applied to the listening socket.
// Options that the platform does not support are ignored.
type ListenConfig struct {
	underlying net.ListenConfig
	// SocketReusePort enables SO_REUSEPORT (Linux >= 3.9).
	SocketReusePort bool
	// SocketFastOpen enables TCP_FASTOPEN (Linux >= 3.7).
	SocketFastOpen bool
	// SocketFastOpenQueueLen is the TCP_FASTOPEN queue length (default 256).
	SocketFastOpenQueueLen int
	// SocketDeferAccept enables TCP_DEFER_ACCEPT (Linux >= 2.4). Accept
	// returns only once the client has sent data, which for TLS means the
	// ClientHello has arrived.
	SocketDeferAccept bool
}
