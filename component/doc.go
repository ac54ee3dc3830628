// Package component manages the lifecycle of backing store clients.
//
// The Redis, database, and storage packages each expose a Component; a
// command registers the ones it needs and starts them before streaming:
//
//	reg := component.NewRegistry()
//	_ = reg.Register(redis.NewComponent(cfg.Redis))
//	if err := reg.StartAll(ctx); err != nil { ... }
//	defer reg.StopAll(context.Background())
package component
