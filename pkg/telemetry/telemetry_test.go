package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/trace/noop"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestRecorder(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	r, err := New(mp, noop.NewTracerProvider())
	require.NoError(t, err)

	tr := r.Track(context.Background(), "op-1", "ABeeZee", "regular")
	tr.Phase("downloading", "")
	tr.End(OutcomeSuccess, nil)

	r.Track(context.Background(), "op-2", "Arial", "700").End(OutcomeFailure, errors.New("variant not found"))
	r.Track(context.Background(), "op-3", "Arial", "700").End(OutcomeFailure, errors.New("variant not found"))
	r.Queued(context.Background(), 2)
	r.Queued(context.Background(), -1)

	metrics := collect(t, reader)

	counter, ok := metrics["inkwell.acquisitions"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	byOutcome := map[string]int64{}
	for _, dp := range counter.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key("outcome"))
		byOutcome[v.AsString()] += dp.Value
	}
	assert.Equal(t, map[string]int64{OutcomeSuccess: 1, OutcomeFailure: 2}, byOutcome)

	hist, ok := metrics["inkwell.acquisition.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(3), count)

	queued, ok := metrics["inkwell.queue.outstanding"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, queued.DataPoints, 1)
	assert.Equal(t, int64(1), queued.DataPoints[0].Value)
}

func TestNew_GlobalProviders(t *testing.T) {
	r, err := New(nil, nil)
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		tr := r.Track(context.Background(), "op", "ABeeZee", "regular")
		tr.Phase("resolving-local", "")
		tr.End(OutcomeCancelled, nil)
	})
}
