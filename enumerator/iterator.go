package enumerator

import (
	"context"

	"github.com/kbukum/pagestream/errors"
)

// Iterator is the pull-based form of an enumerator. Next blocks while the
// buffer is empty and a page is on its way. It is not safe for concurrent use.
type Iterator[T any] struct {
	e   *Enumerator[T]
	err error
}

// Iterator claims e for pull-based consumption. If e was already consumed
// every call to Next reports a CLOSED error.
func (e *Enumerator[T]) Iterator() *Iterator[T] {
	return &Iterator[T]{e: e, err: e.claim()}
}

// Next returns the next element. At the end of the stream it returns
// (zero, false, nil); after a failure it returns (zero, false, err). Once
// either happens every later call returns the same values without touching
// the cursor.
//
// ctx bounds this call only. Page requests, including read-ahead that
// outlives the call, run under a context owned by the stream and are
// cancelled when the stream terminates. A ctx that ends while Next is
// waiting for a page terminates the stream with ctx.Err().
func (it *Iterator[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if it.err != nil {
		return zero, false, it.err
	}
	e := it.e
	for {
		if e.terminated() {
			return zero, false, e.Err()
		}
		if err := ctx.Err(); err != nil {
			return zero, false, it.fail(err)
		}
		if err := e.pendingFetchErr(); err != nil {
			return zero, false, it.fail(errors.SourceFailure("fetch_more", err))
		}
		e.setState(StateAwaitingStep)
		e.maybePrefetch(ctx)

		c := e.cursor
		if c.Exhausted() {
			e.terminate(nil)
			return zero, false, nil
		}
		if c.Available() > 0 {
			v, err := c.Next()
			if err != nil {
				return zero, false, it.fail(errors.SourceFailure("next", err))
			}
			e.delivered()
			return v, true, nil
		}

		if err := e.pendingFetchErr(); err != nil {
			return zero, false, it.fail(errors.SourceFailure("fetch_more", err))
		}
		f := e.awaitFetch(ctx)
		e.suspended()
		select {
		case <-f.Done():
			_, err := f.Result()
			e.settle(f, err)
		case <-ctx.Done():
			return zero, false, it.fail(ctx.Err())
		}
	}
}

// Close terminates the stream and cancels any page request in flight. Later
// calls to Next report ErrClosed unless the stream had already ended. Closing
// an iterator over an already consumed enumerator reports CLOSED.
func (it *Iterator[T]) Close() error {
	if it.err != nil {
		return it.err
	}
	it.e.terminate(errors.ErrClosed)
	return nil
}

func (it *Iterator[T]) fail(err error) error {
	it.e.terminate(err)
	return it.e.Err()
}

// Stats returns the underlying enumerator's counters.
func (it *Iterator[T]) Stats() Stats { return it.e.Stats() }
