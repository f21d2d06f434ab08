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

package metric

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	outcomeKey = attribute.Key("outcome")
	statusKey  = attribute.Key("status")
)

// ServerMetric defines the RPC server instrumentation
type ServerMetric struct {
	// Specifies the number of connections per verification outcome
	connections metric.Int64Counter
	// Specifies the TLS handshake latency in milliseconds
	handshakeDuration metric.Float64Histogram
	// Specifies the number of requests per response status
	requests metric.Int64Counter
}

// NewServerMetric creates an instance of ServerMetric
func NewServerMetric(meter metric.Meter) (*ServerMetric, error) {
	serverMetric := new(ServerMetric)
	var err error

	if serverMetric.connections, err = meter.Int64Counter(
		"tlsrpc.connections",
		metric.WithDescription("Total number of connections by verification outcome"),
	); err != nil {
		return nil, fmt.Errorf("failed to create connections instrument, %w", err)
	}

	if serverMetric.handshakeDuration, err = meter.Float64Histogram(
		"tlsrpc.handshake.duration",
		metric.WithDescription("The latency of the TLS handshake in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("failed to create handshakeDuration instrument, %w", err)
	}

	if serverMetric.requests, err = meter.Int64Counter(
		"tlsrpc.requests",
		metric.WithDescription("Total number of requests by response status"),
	); err != nil {
		return nil, fmt.Errorf("failed to create requests instrument, %w", err)
	}

	return serverMetric, nil
}

// Connections returns the connections counter
func (x *ServerMetric) Connections() metric.Int64Counter {
	return x.connections
}

// HandshakeDuration returns the handshake latency histogram
func (x *ServerMetric) HandshakeDuration() metric.Float64Histogram {
	return x.handshakeDuration
}

// Requests returns the requests counter
func (x *ServerMetric) Requests() metric.Int64Counter {
	return x.requests
}

// RecordConnection counts a connection that ended with the given outcome.
// It is a no-op on a nil ServerMetric.
func (x *ServerMetric) RecordConnection(ctx context.Context, outcome string) {
	if x == nil {
		return
	}
	x.connections.Add(ctx, 1, metric.WithAttributes(outcomeKey.String(outcome)))
}

// RecordHandshake records the duration of a completed TLS handshake.
func (x *ServerMetric) RecordHandshake(ctx context.Context, duration time.Duration) {
	if x == nil {
		return
	}
	x.handshakeDuration.Record(ctx, float64(duration)/float64(time.Millisecond))
}

// RecordRequest counts a request answered with the given status.
func (x *ServerMetric) RecordRequest(ctx context.Context, status string) {
	if x == nil {
		return
	}
	x.requests.Add(ctx, 1, metric.WithAttributes(statusKey.String(status)))
}
