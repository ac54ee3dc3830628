package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kbukum/pagestream/bootstrap"
	"github.com/kbukum/pagestream/component"
	"github.com/kbukum/pagestream/cursor"
	"github.com/kbukum/pagestream/enumerator"
	"github.com/kbukum/pagestream/logger"
	"github.com/kbukum/pagestream/observability"
	"github.com/kbukum/pagestream/pipeline"
)

// stream describes one backend listing a command drains.
type stream[T any] struct {
	name    string
	backend string
	details string
	// component builds the backend once logging is configured.
	component func(log *logger.Logger) component.Component
	// fetcher is called once the backend component has started.
	fetcher func() (cursor.PageFetcher[T], error)
	// text renders an element for text output.
	text func(T) string
}

// runStream starts the stream's backend component, drains s through a prefetching enumerator and
// prints every element.
func runStream[T any](cmd *cobra.Command, g *globalFlags, cfg *Config, s stream[T]) error {
	app, err := bootstrap.NewApp(cfg, bootstrap.WithSummaryWriter(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	if err := app.RegisterComponent(s.component(app.Logger)); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	metrics, err := setupTelemetry(ctx, app)
	if err != nil {
		return err
	}
	app.Summary.TrackStream(s.name, s.backend, s.details)

	return app.RunTask(ctx, func(ctx context.Context) error {
		raw, err := s.fetcher()
		if err != nil {
			return err
		}
		log := app.Logger.WithFields(logger.Fields(logger.FieldBackend, s.backend))

		fetch := cursor.WithBreaker(raw, cfg.Breaker, log)
		fetch = cursor.WithRetry(fetch, cfg.Retry, log)
		fetch = observability.TracedFetcher(fetch, s.backend, metrics)

		opts := []enumerator.Option[T]{
			enumerator.WithConfig[T](cfg.Stream),
			enumerator.WithLogger[T](log),
		}
		if metrics != nil {
			opts = append(opts, enumerator.WithObserver[T](metrics.Observer(ctx, s.backend)))
		}
		e := enumerator.New[T](cursor.NewBuffered(fetch, cursor.WithLogger[T](log)), opts...)

		p := pipeline.FromEnumerator(e)
		if g.limit > 0 {
			p = pipeline.Take(p, g.limit)
		}

		out := newPrinter(cmd.OutOrStdout(), g.output)
		if g.batch > 0 {
			err = pipeline.ForEach(ctx, pipeline.Batch(p, g.batch, 0), func(_ context.Context, batch []T) error {
				return writeBatch(out, batch, s.text)
			})
		} else {
			err = pipeline.ForEach(ctx, p, func(_ context.Context, v T) error {
				return writeOne(out, v, s.text)
			})
		}

		st := e.Stats()
		log.Info("stream finished", logger.Fields(
			logger.FieldStreamID, st.ID,
			logger.FieldState, st.State.String(),
			logger.FieldElements, st.Delivered,
			logger.FieldFetches, st.Fetches,
			"prefetches", st.Prefetches,
			"suspensions", st.Suspensions,
		))
		return err
	})
}

// setupTelemetry installs OTLP meter and tracer providers when enabled and
// registers their shutdown. It returns nil metrics when telemetry is off.
func setupTelemetry(ctx context.Context, app *bootstrap.App[*Config]) (*observability.Metrics, error) {
	tc := app.Cfg.Telemetry
	if !tc.Enabled {
		return nil, nil
	}
	base := app.Cfg.GetServiceConfig()

	mc := observability.DefaultMeterConfig(base.Name)
	mc.ServiceVersion, mc.Environment = base.Version, base.Environment
	mc.Endpoint, mc.Insecure = tc.Endpoint, tc.Insecure
	mp, err := observability.InitMeter(ctx, mc)
	if err != nil {
		return nil, err
	}
	app.OnStop(mp.Shutdown)

	trc := observability.DefaultTracerConfig(base.Name)
	trc.ServiceVersion, trc.Environment = base.Version, base.Environment
	trc.Endpoint, trc.Insecure, trc.SampleRate = tc.Endpoint, tc.Insecure, tc.SampleRate
	tp, err := observability.InitTracer(ctx, trc)
	if err != nil {
		return nil, err
	}
	app.OnStop(tp.Shutdown)

	return observability.NewMetrics(mp.Meter(serviceName))
}
