package pipeline

import "context"

// stage builds a pipeline whose iterator wraps the one of p.
func stage[I, O any](p *Pipeline[I], wrap func(src Iterator[I]) Iterator[O]) *Pipeline[O] {
	return &Pipeline[O]{
		create: func(ctx context.Context) Iterator[O] { return wrap(p.create(ctx)) },
	}
}

// Map transforms each value using fn.
func Map[I, O any](p *Pipeline[I], fn func(context.Context, I) (O, error)) *Pipeline[O] {
	return stage(p, func(src Iterator[I]) Iterator[O] { return &mapIter[I, O]{src: src, fn: fn} })
}

// Filter keeps only values that satisfy keep.
func Filter[T any](p *Pipeline[T], keep func(T) bool) *Pipeline[T] {
	return stage(p, func(src Iterator[T]) Iterator[T] { return &filterIter[T]{src: src, keep: keep} })
}

// Tap calls fn for each value and passes the value on unchanged.
func Tap[T any](p *Pipeline[T], fn func(context.Context, T) error) *Pipeline[T] {
	return Map(p, func(ctx context.Context, v T) (T, error) {
		if err := fn(ctx, v); err != nil {
			var zero T
			return zero, err
		}
		return v, nil
	})
}

// Take yields at most n values, then stops pulling from the source.
func Take[T any](p *Pipeline[T], n int) *Pipeline[T] {
	return stage(p, func(src Iterator[T]) Iterator[T] { return &takeIter[T]{src: src, left: n} })
}

// Reduce folds all values into acc. The pipeline yields exactly one value.
func Reduce[T, R any](p *Pipeline[T], acc R, fn func(R, T) R) *Pipeline[R] {
	return stage(p, func(src Iterator[T]) Iterator[R] { return &reduceIter[T, R]{src: src, acc: acc, fn: fn} })
}

// Concat yields every value of each pipeline in turn.
func Concat[T any](pipelines ...*Pipeline[T]) *Pipeline[T] {
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			return &concatIter[T]{ctx: ctx, pipelines: pipelines}
		},
	}
}

type mapIter[I, O any] struct {
	src Iterator[I]
	fn  func(context.Context, I) (O, error)
}

func (it *mapIter[I, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	val, ok, err := it.src.Next(ctx)
	if err != nil || !ok {
		return zero, false, err
	}
	out, err := it.fn(ctx, val)
	if err != nil {
		return zero, false, err
	}
	return out, true, nil
}

func (it *mapIter[I, O]) Close() error { return it.src.Close() }

type filterIter[T any] struct {
	src  Iterator[T]
	keep func(T) bool
}

func (it *filterIter[T]) Next(ctx context.Context) (T, bool, error) {
	for {
		val, ok, err := it.src.Next(ctx)
		if err != nil || !ok {
			return val, false, err
		}
		if it.keep(val) {
			return val, true, nil
		}
	}
}

func (it *filterIter[T]) Close() error { return it.src.Close() }

type takeIter[T any] struct {
	src  Iterator[T]
	left int
}

func (it *takeIter[T]) Next(ctx context.Context) (T, bool, error) {
	if it.left <= 0 {
		var zero T
		return zero, false, nil
	}
	val, ok, err := it.src.Next(ctx)
	if err != nil || !ok {
		it.left = 0
		return val, false, err
	}
	it.left--
	return val, true, nil
}

func (it *takeIter[T]) Close() error { return it.src.Close() }

type reduceIter[T, R any] struct {
	src  Iterator[T]
	acc  R
	fn   func(R, T) R
	done bool
}

func (it *reduceIter[T, R]) Next(ctx context.Context) (R, bool, error) {
	var zero R
	if it.done {
		return zero, false, nil
	}
	for {
		val, ok, err := it.src.Next(ctx)
		if err != nil {
			return zero, false, err
		}
		if !ok {
			it.done = true
			return it.acc, true, nil
		}
		it.acc = it.fn(it.acc, val)
	}
}

func (it *reduceIter[T, R]) Close() error { return it.src.Close() }

// concatIter opens each pipeline only when the previous one is exhausted.
type concatIter[T any] struct {
	ctx       context.Context
	pipelines []*Pipeline[T]
	current   Iterator[T]
}

func (it *concatIter[T]) Next(ctx context.Context) (T, bool, error) {
	for {
		if it.current == nil {
			if len(it.pipelines) == 0 {
				var zero T
				return zero, false, nil
			}
			it.current = it.pipelines[0].create(it.ctx)
			it.pipelines = it.pipelines[1:]
		}
		val, ok, err := it.current.Next(ctx)
		if err != nil || ok {
			return val, ok, err
		}
		if err := it.current.Close(); err != nil {
			return val, false, err
		}
		it.current = nil
	}
}

func (it *concatIter[T]) Close() error {
	if it.current == nil {
		return nil
	}
	return it.current.Close()
}
