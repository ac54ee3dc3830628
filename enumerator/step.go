package enumerator

// Input is one event offered to a consumer: an element or end-of-stream.
type Input[T any] struct {
	value T
	eof   bool
}

// Element wraps v as an input.
func Element[T any](v T) Input[T] { return Input[T]{value: v} }

// EOF returns the end-of-stream input.
func EOF[T any]() Input[T] { return Input[T]{eof: true} }

// IsEOF reports whether the input marks end-of-stream.
func (in Input[T]) IsEOF() bool { return in.eof }

// Value returns the element; it is the zero value for EOF.
func (in Input[T]) Value() T { return in.value }

type stepKind uint8

const (
	stepContinue stepKind = iota + 1
	stepDone
	stepError
)

// Step is a consumer's answer to one input.
type Step[T, R any] struct {
	kind   stepKind
	next   Iteratee[T, R]
	result R
	err    error
}

// Iteratee consumes one input and returns the consumer's next step.
type Iteratee[T, R any] func(Input[T]) Step[T, R]

// Continue asks for the next input, to be fed to next.
func Continue[T, R any](next Iteratee[T, R]) Step[T, R] {
	return Step[T, R]{kind: stepContinue, next: next}
}

// Done stops the stream with result.
func Done[T, R any](result R) Step[T, R] {
	return Step[T, R]{kind: stepDone, result: result}
}

// Error stops the stream with err.
func Error[T, R any](err error) Step[T, R] {
	return Step[T, R]{kind: stepError, err: err}
}

func (s Step[T, R]) IsContinue() bool { return s.kind == stepContinue }
func (s Step[T, R]) IsDone() bool     { return s.kind == stepDone }
func (s Step[T, R]) IsError() bool    { return s.kind == stepError }

// Next returns the continuation of a Continue step.
func (s Step[T, R]) Next() Iteratee[T, R] { return s.next }

// Result returns the result of a Done step.
func (s Step[T, R]) Result() R { return s.result }

// Err returns the error of an Error step.
func (s Step[T, R]) Err() error { return s.err }

// Fold folds every element into acc and returns it at EOF.
func Fold[T, R any](acc R, fn func(R, T) R) Iteratee[T, R] {
	return func(in Input[T]) Step[T, R] {
		if in.IsEOF() {
			return Done[T](acc)
		}
		return Continue(Fold(fn(acc, in.Value()), fn))
	}
}

// Collect gathers every element in stream order.
func Collect[T any]() Iteratee[T, []T] {
	return Fold(make([]T, 0), func(acc []T, v T) []T { return append(acc, v) })
}

// Take gathers at most n elements and stops as soon as it has them, leaving
// the rest of the stream unread. The first input always completes a Take
// with n <= 0.
func Take[T any](n int) Iteratee[T, []T] {
	return take(make([]T, 0, max(n, 0)), n)
}

func take[T any](acc []T, n int) Iteratee[T, []T] {
	return func(in Input[T]) Step[T, []T] {
		if in.IsEOF() || n <= 0 {
			return Done[T](acc)
		}
		acc = append(acc, in.Value())
		if len(acc) >= n {
			return Done[T](acc)
		}
		return Continue(take(acc, n))
	}
}

// ForEach calls fn for every element and returns the number of elements
// handled. An error from fn stops the stream.
func ForEach[T any](fn func(T) error) Iteratee[T, int] {
	return forEach(0, fn)
}

func forEach[T any](count int, fn func(T) error) Iteratee[T, int] {
	return func(in Input[T]) Step[T, int] {
		if in.IsEOF() {
			return Done[T](count)
		}
		if err := fn(in.Value()); err != nil {
			return Error[T, int](err)
		}
		return Continue(forEach(count+1, fn))
	}
}
