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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewServerMetric(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	serverMetric, err := NewServerMetric(meter)
	require.NoError(t, err)
	assert.NotNil(t, serverMetric.Connections())
	assert.NotNil(t, serverMetric.HandshakeDuration())
	assert.NotNil(t, serverMetric.Requests())
}

func TestServerMetricRecording(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })

	serverMetric, err := NewServerMetric(provider.Meter("test"))
	require.NoError(t, err)

	serverMetric.RecordConnection(ctx, "accepted")
	serverMetric.RecordConnection(ctx, "accepted")
	serverMetric.RecordConnection(ctx, "mismatch")
	serverMetric.RecordHandshake(ctx, 1500*time.Microsecond)
	serverMetric.RecordRequest(ctx, "ok")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	metrics := make(map[string]metricdata.Metrics)
	for _, m := range rm.ScopeMetrics[0].Metrics {
		metrics[m.Name] = m
	}

	connections, ok := metrics["tlsrpc.connections"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	counts := make(map[string]int64)
	for _, point := range connections.DataPoints {
		outcome, _ := point.Attributes.Value(attribute.Key("outcome"))
		counts[outcome.AsString()] = point.Value
	}
	assert.Equal(t, map[string]int64{"accepted": 2, "mismatch": 1}, counts)

	handshakes, ok := metrics["tlsrpc.handshake.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, handshakes.DataPoints, 1)
	assert.EqualValues(t, 1, handshakes.DataPoints[0].Count)
	assert.InDelta(t, 1.5, handshakes.DataPoints[0].Sum, 0.001)

	requests, ok := metrics["tlsrpc.requests"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, requests.DataPoints, 1)
	assert.EqualValues(t, 1, requests.DataPoints[0].Value)
}

func TestNilServerMetric(t *testing.T) {
	var serverMetric *ServerMetric
	ctx := context.Background()
	assert.NotPanics(t, func() {
		serverMetric.RecordConnection(ctx, "accepted")
		serverMetric.RecordHandshake(ctx, time.Millisecond)
		serverMetric.RecordRequest(ctx, "ok")
	})
}
