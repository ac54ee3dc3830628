package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/pagestream/enumerator"
	"github.com/kbukum/pagestream/errors"
)

// Metric names.
const (
	MetricElements      = "pagestream.elements"
	MetricFetches       = "pagestream.fetches"
	MetricPrefetches    = "pagestream.prefetches"
	MetricSuspensions   = "pagestream.suspensions"
	MetricErrors        = "pagestream.errors"
	MetricActiveStreams = "pagestream.streams.active"
	MetricFetchDuration = "pagestream.fetch.duration"
)

// Metrics holds the instruments shared by every stream.
type Metrics struct {
	elements      metric.Int64Counter
	fetches       metric.Int64Counter
	prefetches    metric.Int64Counter
	suspensions   metric.Int64Counter
	errors        metric.Int64Counter
	active        metric.Int64UpDownCounter
	fetchDuration metric.Float64Histogram
}

// NewMetrics creates the stream instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.elements, MetricElements, "Elements handed to consumers"},
		{&m.fetches, MetricFetches, "Page requests issued"},
		{&m.prefetches, MetricPrefetches, "Page requests issued while elements were still buffered"},
		{&m.suspensions, MetricSuspensions, "Times a consumer waited on an empty buffer"},
		{&m.errors, MetricErrors, "Streams that ended with an error, by code"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, fmt.Errorf("creating %s counter: %w", c.name, err)
		}
	}

	m.active, err = meter.Int64UpDownCounter(MetricActiveStreams,
		metric.WithDescription("Streams currently being consumed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricActiveStreams, err)
	}

	m.fetchDuration, err = meter.Float64Histogram(MetricFetchDuration,
		metric.WithDescription("Duration of page fetches in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricFetchDuration, err)
	}
	return m, nil
}

// RecordFetch records the duration of one page fetch.
func (m *Metrics) RecordFetch(ctx context.Context, backend string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.fetchDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String(AttrBackend, backend),
		attribute.String("status", status),
	))
}

// Observer returns an enumerator.Observer that records one stream's events
// tagged with backend. The stream counts as active until it terminates.
func (m *Metrics) Observer(ctx context.Context, backend string) enumerator.Observer {
	attrs := metric.WithAttributes(attribute.String(AttrBackend, backend))
	m.active.Add(ctx, 1, attrs)
	return &streamObserver{ctx: ctx, backend: backend, attrs: attrs, m: m}
}

type streamObserver struct {
	ctx     context.Context
	backend string
	attrs   metric.MeasurementOption
	m       *Metrics
}

func (o *streamObserver) OnElement() { o.m.elements.Add(o.ctx, 1, o.attrs) }
func (o *streamObserver) OnSuspend() { o.m.suspensions.Add(o.ctx, 1, o.attrs) }

func (o *streamObserver) OnFetch(prefetch bool) {
	o.m.fetches.Add(o.ctx, 1, o.attrs)
	if prefetch {
		o.m.prefetches.Add(o.ctx, 1, o.attrs)
	}
}

func (o *streamObserver) OnTerminate(err error) {
	o.m.active.Add(o.ctx, -1, o.attrs)
	if err == nil || errors.Is(err, errors.ErrClosed) {
		return
	}
	code := string(errors.Code(err))
	if code == "" {
		code = "UNKNOWN"
	}
	o.m.errors.Add(o.ctx, 1, metric.WithAttributes(
		attribute.String(AttrBackend, o.backend),
		attribute.String(AttrErrorCode, code),
	))
}
