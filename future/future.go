package future

import (
	"context"
	"sync"
)

// Future is the read side of a value that completes at most once.
type Future[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	value     T
	err       error
	completed bool
	callbacks []func(T, error)
}

// Promise completes its Future exactly once.
type Promise[T any] struct {
	f *Future[T]
}

// New returns a pending promise and the future it completes.
func New[T any]() (*Promise[T], *Future[T]) {
	f := &Future[T]{done: make(chan struct{})}
	return &Promise[T]{f: f}, f
}

// Resolved returns a future already completed with v.
func Resolved[T any](v T) *Future[T] {
	p, f := New[T]()
	p.Resolve(v)
	return f
}

// Failed returns a future already completed with err.
func Failed[T any](err error) *Future[T] {
	p, f := New[T]()
	p.Reject(err)
	return f
}

// Go runs fn on a new goroutine and completes the returned future with its result.
// A panic in fn is not recovered.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	p, f := New[T]()
	go func() {
		v, err := fn(ctx)
		p.Complete(v, err)
	}()
	return f
}

// Future returns the future this promise completes.
func (p *Promise[T]) Future() *Future[T] { return p.f }

// Resolve completes the future with v. It reports false if already completed.
func (p *Promise[T]) Resolve(v T) bool {
	return p.f.complete(v, nil)
}

// Reject completes the future with err. It reports false if already completed.
func (p *Promise[T]) Reject(err error) bool {
	var zero T
	return p.f.complete(zero, err)
}

// Complete completes the future with (v, err). It reports false if already completed.
func (p *Promise[T]) Complete(v T, err error) bool {
	return p.f.complete(v, err)
}

func (f *Future[T]) complete(v T, err error) bool {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return false
	}
	f.value, f.err, f.completed = v, err, true
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(v, err)
	}
	return true
}

// Done returns a channel closed once the future completes.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// IsCompleted reports whether the future has completed.
func (f *Future[T]) IsCompleted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed
}

// Result returns the completed value and error without blocking. Before
// completion it returns the zero value and a nil error; check IsCompleted first.
func (f *Future[T]) Result() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

// Wait blocks until the future completes or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.Result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// OnComplete registers fn to run with the result. If the future is already
// completed fn runs synchronously on the caller; otherwise it runs on the
// goroutine that completes the future, in registration order.
func (f *Future[T]) OnComplete(fn func(T, error)) {
	f.mu.Lock()
	if !f.completed {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	v, err := f.value, f.err
	f.mu.Unlock()
	fn(v, err)
}
