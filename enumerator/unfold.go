package enumerator

import (
	"context"
)

// UnfoldFunc produces the element that follows state. It returns ok=false
// at the end of the sequence.
type UnfoldFunc[S, T any] func(ctx context.Context, state S) (next S, v T, ok bool, err error)

// UnfoldIterator generates a sequence from a seed state, one call to the
// step function per element. It has the same termination behaviour as
// Iterator.
type UnfoldIterator[S, T any] struct {
	state S
	step  UnfoldFunc[S, T]
	done  bool
	err   error
}

// Unfold returns an iterator over the elements produced by step from seed.
func Unfold[S, T any](seed S, step UnfoldFunc[S, T]) *UnfoldIterator[S, T] {
	return &UnfoldIterator[S, T]{state: seed, step: step}
}

// Next returns the next element.
func (u *UnfoldIterator[S, T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if u.done {
		return zero, false, u.err
	}
	if err := ctx.Err(); err != nil {
		u.done, u.err = true, err
		return zero, false, err
	}
	next, v, ok, err := u.step(ctx, u.state)
	if err != nil {
		u.done, u.err = true, err
		return zero, false, err
	}
	if !ok {
		u.done = true
		return zero, false, nil
	}
	u.state = next
	return v, true, nil
}

// Close ends the sequence.
func (u *UnfoldIterator[S, T]) Close() error {
	u.done = true
	return nil
}

// State returns the current seed state.
func (u *UnfoldIterator[S, T]) State() S { return u.state }
