// Package bootstrap runs a pagestream command: it validates the typed
// configuration, initializes logging, starts registered components, runs
// one streaming task with signal-driven cancellation and shuts everything
// down again.
//
//	app, err := bootstrap.NewApp(&cfg)
//	_ = app.RegisterComponent(redis.NewComponent(cfg.Redis, app.Logger))
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return stream(ctx)
//	})
package bootstrap
