package pipeline

import (
	"context"
	"sync"
)

// result carries a value or error through a channel.
type result[T any] struct {
	val T
	err error
}

// chanIter reads results from a channel filled by background goroutines.
type chanIter[T any] struct {
	ch     <-chan result[T]
	closer func() error
	once   sync.Once
}

func (it *chanIter[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	select {
	case r, open := <-it.ch:
		if !open {
			return zero, false, nil
		}
		if r.err != nil {
			return zero, false, r.err
		}
		return r.val, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (it *chanIter[T]) Close() error {
	var err error
	it.once.Do(func() { err = it.closer() })
	return err
}

// pump pulls src until it ends, fails, or ctx is cancelled, handing each
// value to emit. It reports false once the consumer has gone away.
func pump[T any](ctx context.Context, src Iterator[T], emit func(result[T]) bool) {
	for {
		val, ok, err := src.Next(ctx)
		if err != nil {
			emit(result[T]{err: err})
			return
		}
		if !ok || !emit(result[T]{val: val}) {
			return
		}
	}
}

func send[T any](ctx context.Context, ch chan<- result[T], r result[T]) bool {
	select {
	case ch <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

// Buffer reads up to size values ahead of the consumer on a background
// goroutine, so fetch latency overlaps with downstream work. Close stops the
// reader and waits for it to exit.
func Buffer[T any](p *Pipeline[T], size int) *Pipeline[T] {
	if size <= 0 {
		size = 1
	}
	return &Pipeline[T]{
		create: func(ctx context.Context) Iterator[T] {
			src := p.create(ctx)
			bufCtx, cancel := context.WithCancel(ctx)
			ch := make(chan result[T], size)
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer close(ch)
				pump(bufCtx, src, func(r result[T]) bool { return send(bufCtx, ch, r) })
			}()
			return &chanIter[T]{ch: ch, closer: func() error {
				cancel()
				wg.Wait()
				return src.Close()
			}}
		},
	}
}

// Parallel applies fn to each value with up to n workers. Output order is
// not preserved; use Map when it matters. The first error stops all workers.
func Parallel[I, O any](p *Pipeline[I], n int, fn func(context.Context, I) (O, error)) *Pipeline[O] {
	if n <= 0 {
		n = 1
	}
	return &Pipeline[O]{
		create: func(ctx context.Context) Iterator[O] {
			src := p.create(ctx)
			workCtx, cancel := context.WithCancel(ctx)
			in := make(chan I, n)
			out := make(chan result[O], n)

			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer close(in)
				pump(workCtx, src, func(r result[I]) bool {
					if r.err != nil {
						send(workCtx, out, result[O]{err: r.err})
						return false
					}
					select {
					case in <- r.val:
						return true
					case <-workCtx.Done():
						return false
					}
				})
			}()

			for range n {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for val := range in {
						o, err := fn(workCtx, val)
						if err != nil {
							send(workCtx, out, result[O]{err: err})
							cancel()
							return
						}
						if !send(workCtx, out, result[O]{val: o}) {
							return
						}
					}
				}()
			}

			go func() {
				wg.Wait()
				close(out)
			}()

			return &chanIter[O]{ch: out, closer: func() error {
				cancel()
				for range out {
				}
				return src.Close()
			}}
		},
	}
}
