// Package enumerator adapts a cursor.Paged into a stream of elements fed to
// a consumer, prefetching pages ahead of consumption.
//
// A consumer is an Iteratee: a function that receives one Input at a time
// (an element or EOF) and answers with a Step telling the producer to
// Continue with a new iteratee, stop with a Done result, or stop with an
// Error.
//
//	e := enumerator.New(cur, enumerator.WithLowWaterMark[Row](50))
//	rows, err := enumerator.Run(ctx, e, enumerator.Collect[Row]()).Wait(ctx)
//
// While fewer than LowWaterMark elements are buffered and the server has
// more pages, one background fetch is kept in flight. Elements already
// buffered are handed over synchronously; an empty buffer suspends the
// drive until the outstanding fetch completes. Chained steps are scheduled
// on a trampoline, so stack depth stays constant however long the stream.
//
// Iterator offers the same policy as a pull-based sequence for callers that
// prefer a loop over an iteratee.
package enumerator
