package pipeline

import (
	"context"
	"time"
)

// Batch groups values into slices of up to size, flushing a partial batch
// once timeout has passed since its first value. size <= 0 means flush only
// on timeout; timeout <= 0 means flush only on size. With both unset the
// size defaults to 1.
//
// The timeout is checked between pulls, so a batch waiting on a slow source
// is flushed when the next value arrives.
func Batch[T any](p *Pipeline[T], size int, timeout time.Duration) *Pipeline[[]T] {
	if size <= 0 && timeout <= 0 {
		size = 1
	}
	return stage(p, func(src Iterator[T]) Iterator[[]T] {
		return &batchIter[T]{src: src, size: size, timeout: timeout}
	})
}

type batchIter[T any] struct {
	src     Iterator[T]
	size    int
	timeout time.Duration
	err     error
	done    bool
}

func (it *batchIter[T]) Next(ctx context.Context) ([]T, bool, error) {
	if it.err != nil {
		err := it.err
		it.err = nil
		it.done = true
		return nil, false, err
	}
	if it.done {
		return nil, false, nil
	}

	var batch []T
	var deadline time.Time
	for it.size <= 0 || len(batch) < it.size {
		val, ok, err := it.src.Next(ctx)
		if err != nil {
			if len(batch) == 0 {
				it.done = true
				return nil, false, err
			}
			// deliver what we have; the error surfaces on the next call
			it.err = err
			return batch, true, nil
		}
		if !ok {
			it.done = true
			break
		}
		if len(batch) == 0 && it.timeout > 0 {
			deadline = time.Now().Add(it.timeout)
		}
		batch = append(batch, val)
		if it.timeout > 0 && !time.Now().Before(deadline) {
			break
		}
	}
	if len(batch) == 0 {
		return nil, false, nil
	}
	return batch, true, nil
}

func (it *batchIter[T]) Close() error { return it.src.Close() }
