// Package observability wires OpenTelemetry tracing and metrics into
// paged streams.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("pagestream"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("pagestream"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("pagestream"))
//	e := enumerator.New(cur, enumerator.WithObserver[string](metrics.Observer(ctx, "redis")))
//
// Page fetches are traced by wrapping a fetcher:
//
//	fetch = observability.TracedFetcher(fetch, "s3", metrics)
package observability
