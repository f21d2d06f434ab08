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

// Status is the outcome of a call as reported in the ":status" header.
type Status string

const (
	// StatusOK marks a successful call.
	StatusOK Status = "ok"
	// StatusNotFound marks a request sent to a path the server does not serve.
	StatusNotFound Status = "not_found"
	// StatusUnimplemented marks a request for an unregistered method.
	StatusUnimplemented Status = "unimplemented"
	// StatusError marks a call whose handler returned an error.
	StatusError Status = "error"
	// StatusInternal marks a call whose handler panicked.
	StatusInternal Status = "internal"
)

func (s Status) String() string {
	return string(s)
}
