package observe

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumFor(t *testing.T, m *metricdata.Metrics, key, value string) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			return dp.Value
		}
	}
	return 0
}

func TestUnitCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.UnitEnqueued(ctx, false)
	m.UnitEnqueued(ctx, false)
	m.UnitEnqueued(ctx, true)
	m.RecordUnit(ctx, "typed")
	m.RecordUnit(ctx, "failed")
	m.RecordUnit(ctx, "typed")
	m.RecordRetry(ctx, "tencent")

	rm := collect(t, reader)

	enqueued := findMetric(rm, "parla.units.enqueued")
	require.NotNil(t, enqueued)
	require.Equal(t, int64(2), sumFor(t, enqueued, "kind", "segment"))
	require.Equal(t, int64(1), sumFor(t, enqueued, "kind", "final"))

	processed := findMetric(rm, "parla.units.processed")
	require.NotNil(t, processed)
	require.Equal(t, int64(2), sumFor(t, processed, "outcome", "typed"))
	require.Equal(t, int64(1), sumFor(t, processed, "outcome", "failed"))

	retries := findMetric(rm, "parla.stt.retries")
	require.NotNil(t, retries)
	require.Equal(t, int64(1), sumFor(t, retries, "engine", "tencent"))
}

func TestStageHistogram(t *testing.T) {
	m, reader := newTestMetrics(t)
	m.RecordStage(context.Background(), "stt", 1500*time.Millisecond)
	m.RecordStage(context.Background(), "stt", 500*time.Millisecond)

	got := findMetric(collect(t, reader), "parla.stage.duration")
	require.NotNil(t, got)
	hist, ok := got.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	require.Equal(t, uint64(2), hist.DataPoints[0].Count)
	require.InDelta(t, 2.0, hist.DataPoints[0].Sum, 1e-9)
}

func TestBacklogGauge(t *testing.T) {
	m, reader := newTestMetrics(t)
	backlog := 3
	reg, err := m.ObserveBacklog(func() int { return backlog })
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Unregister() })

	got := findMetric(collect(t, reader), "parla.queue.backlog")
	require.NotNil(t, got)
	gauge, ok := got.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	require.Equal(t, int64(3), gauge.DataPoints[0].Value)
}

func TestProviderServesPrometheusText(t *testing.T) {
	p, err := NewProvider()
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	m, err := NewMetrics(p.MeterProvider)
	require.NoError(t, err)
	m.RecordUnit(context.Background(), "typed")

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.serve(ctx, listener, slog.New(slog.DiscardHandler)) }()

	resp, err := http.Get("http://" + listener.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "parla_units_processed")

	cancel()
	require.NoError(t, <-done)
}
