// Package pipeline provides lazy, pull-based combinators over streams of
// values, most often the elements of a paged cursor.
//
// No work happens until values are pulled via Collect, Drain, or ForEach.
// Each stage pulls from the one before it on demand, so a slow consumer
// holds back fetching without any explicit flow control.
//
// The Iterator interface matches enumerator.Iterator, so a cursor plugs
// straight into a pipeline:
//
//	keys := pipeline.FromCursor[string](redis.Scan(client, "user:*", 500))
//	ids := pipeline.Map(keys, func(_ context.Context, k string) (string, error) {
//	    return strings.TrimPrefix(k, "user:"), nil
//	})
//	first, err := pipeline.Collect(ctx, pipeline.Take(ids, 10))
//
// # Operators
//
// Synchronous: Map, Filter, Tap, Take, Reduce, Batch, Concat.
//
// Concurrent: Buffer reads ahead on its own goroutine; Parallel maps with a
// worker pool and does not preserve order.
package pipeline
