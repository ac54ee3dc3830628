package pipeline

import (
	"context"

	"github.com/kbukum/pagestream/cursor"
	"github.com/kbukum/pagestream/enumerator"
)

// From creates a pipeline from an existing Iterator. The iterator is shared
// by every run, so the pipeline can be consumed once.
func From[T any](iter Iterator[T]) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(context.Context) Iterator[T] { return iter },
	}
}

// FromFunc creates a pipeline from a factory that produces an Iterator per run.
func FromFunc[T any](fn func(ctx context.Context) Iterator[T]) *Pipeline[T] {
	return &Pipeline[T]{create: fn}
}

// FromSlice creates a pipeline over items.
func FromSlice[T any](items []T) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(context.Context) Iterator[T] { return &sliceIter[T]{items: items} },
	}
}

// FromCursor streams the elements of a paged cursor through a prefetching
// enumerator. A cursor is single-use, so the pipeline can be consumed once.
func FromCursor[T any](c cursor.Paged[T], opts ...enumerator.Option[T]) *Pipeline[T] {
	return FromEnumerator(enumerator.New(c, opts...))
}

// FromEnumerator streams the elements of e.
func FromEnumerator[T any](e *enumerator.Enumerator[T]) *Pipeline[T] {
	var it *enumerator.Iterator[T]
	return &Pipeline[T]{
		create: func(context.Context) Iterator[T] {
			if it == nil {
				it = e.Iterator()
			}
			return it
		},
	}
}

// FromPages streams every element of the pages returned by fetch, starting
// from the empty token.
func FromPages[T any](fetch cursor.PageFetcher[T], opts ...enumerator.Option[T]) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(context.Context) Iterator[T] {
			return enumerator.New[T](cursor.NewBuffered(fetch), opts...).Iterator()
		},
	}
}

// Unfold creates a pipeline that generates values from seed with step.
func Unfold[S, T any](seed S, step enumerator.UnfoldFunc[S, T]) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(context.Context) Iterator[T] { return enumerator.Unfold(seed, step) },
	}
}

type sliceIter[T any] struct {
	items []T
	index int
}

func (it *sliceIter[T]) Next(context.Context) (T, bool, error) {
	if it.index >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) Close() error { return nil }
