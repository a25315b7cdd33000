// Package observe exposes daemon metrics through OpenTelemetry with a
// Prometheus scrape endpoint.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/rbright/parla"

// latencyBuckets are seconds, sized for STT round trips and LLM calls.
var latencyBuckets = []float64{
	0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60,
}

// Metrics holds the daemon's instruments. Safe for concurrent use.
type Metrics struct {
	meter metric.Meter

	// StageDuration is per-stage latency, attribute "stage".
	StageDuration metric.Float64Histogram
	// UnitsEnqueued counts units handed to the queue, attribute "kind".
	UnitsEnqueued metric.Int64Counter
	// UnitsProcessed counts worker outcomes, attribute "outcome".
	UnitsProcessed metric.Int64Counter
	// STTRetries counts transient STT retries, attribute "engine".
	STTRetries metric.Int64Counter
}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	met := &Metrics{meter: m}
	var err error

	if met.StageDuration, err = m.Float64Histogram("parla.stage.duration",
		metric.WithDescription("Latency of a processing stage per unit."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.UnitsEnqueued, err = m.Int64Counter("parla.units.enqueued",
		metric.WithDescription("Units pushed onto the transcription queue by kind."),
	); err != nil {
		return nil, err
	}
	if met.UnitsProcessed, err = m.Int64Counter("parla.units.processed",
		metric.WithDescription("Units finished by the worker by outcome."),
	); err != nil {
		return nil, err
	}
	if met.STTRetries, err = m.Int64Counter("parla.stt.retries",
		metric.WithDescription("Transient speech-to-text failures that were retried."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// ObserveBacklog registers a gauge reporting backlog() at collection time.
func (m *Metrics) ObserveBacklog(backlog func() int) (metric.Registration, error) {
	gauge, err := m.meter.Int64ObservableGauge("parla.queue.backlog",
		metric.WithDescription("Units waiting for the worker."),
	)
	if err != nil {
		return nil, err
	}
	return m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(gauge, int64(backlog()))
		return nil
	}, gauge)
}

func (m *Metrics) UnitEnqueued(ctx context.Context, final bool) {
	kind := "segment"
	if final {
		kind = "final"
	}
	m.UnitsEnqueued.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *Metrics) RecordStage(ctx context.Context, stage string, d time.Duration) {
	m.StageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("stage", stage)))
}

func (m *Metrics) RecordUnit(ctx context.Context, outcome string) {
	m.UnitsProcessed.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) RecordRetry(ctx context.Context, engine string) {
	m.STTRetries.Add(ctx, 1, metric.WithAttributes(attribute.String("engine", engine)))
}
