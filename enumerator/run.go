package enumerator

import (
	"context"
	"sync/atomic"

	"github.com/kbukum/pagestream/errors"
	"github.com/kbukum/pagestream/future"
	"github.com/kbukum/pagestream/trampoline"
)

// Run drives it with the elements of e until it returns Done or Error, or
// the stream ends or fails. The returned future completes with the
// consumer's result, or with:
//   - a SOURCE_FAILURE error when FetchMore or Next fails,
//   - a CONSUMER_ERROR error wrapping the error of an Error step,
//   - DIVERGENT_ITERATEE when the consumer continues after EOF,
//   - TASK_PANIC when the consumer panics,
//   - ctx.Err() when ctx is cancelled first.
//
// Run returns as soon as the drive suspends on a fetch; the rest of the
// stream is driven on the goroutine that completes the fetch. If ctx carries
// a scheduler (see trampoline.NewContext) the first steps are queued on it.
func Run[T, R any](ctx context.Context, e *Enumerator[T], it Iteratee[T, R]) *future.Future[R] {
	if err := e.claim(); err != nil {
		return future.Failed[R](err)
	}
	p, f := future.New[R]()
	d := &driver[T, R]{e: e, ctx: ctx, promise: p}

	sched := trampoline.FromContext(ctx, e.sched)
	sched.Execute(func() { d.step(sched, it) })
	return f
}

// driver runs one consumer over an enumerator.
type driver[T, R any] struct {
	e       *Enumerator[T]
	ctx     context.Context
	promise *future.Promise[R]
}

// resume starts a new drive segment on the calling goroutine.
func (d *driver[T, R]) resume(it Iteratee[T, R]) {
	sched := d.e.sched()
	sched.Execute(func() { d.step(sched, it) })
}

func (d *driver[T, R]) step(sched trampoline.Scheduler, it Iteratee[T, R]) {
	e := d.e
	if e.terminated() {
		return
	}
	if err := d.ctx.Err(); err != nil {
		d.fail(err)
		return
	}
	if err := e.pendingFetchErr(); err != nil {
		d.fail(errors.SourceFailure("fetch_more", err))
		return
	}
	e.setState(StateAwaitingStep)
	e.maybePrefetch(d.ctx)

	c := e.cursor
	if c.Exhausted() {
		d.feed(sched, it, EOF[T]())
		return
	}
	if c.Available() > 0 {
		v, err := c.Next()
		if err != nil {
			d.fail(errors.SourceFailure("next", err))
			return
		}
		e.delivered()
		d.feed(sched, it, Element(v))
		return
	}
	d.suspend(sched, it)
}

func (d *driver[T, R]) feed(sched trampoline.Scheduler, it Iteratee[T, R], in Input[T]) {
	st, err := apply(it, in)
	if err != nil {
		d.fail(err)
		return
	}
	switch st.kind {
	case stepContinue:
		if in.IsEOF() {
			d.fail(errors.ErrDivergentIteratee)
			return
		}
		if st.next == nil {
			d.fail(errors.Internal(nil).WithDetail("reason", "continue step without iteratee"))
			return
		}
		next := st.next
		sched.Execute(func() { d.step(sched, next) })
	case stepDone:
		if d.e.terminate(nil) {
			d.promise.Resolve(st.result)
		}
	case stepError:
		d.fail(errors.ConsumerError(st.err))
	default:
		d.fail(errors.Internal(nil).WithDetail("reason", "zero step"))
	}
}

func (d *driver[T, R]) fail(err error) {
	if d.e.terminate(err) {
		d.promise.Reject(err)
	}
}

const (
	handoffRegistering int32 = iota
	handoffWaiting
	handoffDone
)

// suspend waits for a page. Whichever of fetch completion and ctx
// cancellation comes first wakes the drive exactly once. A wake that lands
// while callbacks are still being registered continues on the current
// segment; a later wake starts a new segment on the waking goroutine.
func (d *driver[T, R]) suspend(sched trampoline.Scheduler, it Iteratee[T, R]) {
	e := d.e
	if err := e.pendingFetchErr(); err != nil {
		d.fail(errors.SourceFailure("fetch_more", err))
		return
	}
	f := e.awaitFetch(d.ctx)
	e.suspended()

	var handoff atomic.Int32
	wake := func() {
		if handoff.CompareAndSwap(handoffRegistering, handoffDone) {
			return
		}
		if handoff.CompareAndSwap(handoffWaiting, handoffDone) {
			d.resume(it)
		}
	}

	stop := context.AfterFunc(d.ctx, wake)
	f.OnComplete(func(_ struct{}, err error) {
		stop()
		e.settle(f, err)
		wake()
	})

	if !handoff.CompareAndSwap(handoffRegistering, handoffWaiting) {
		sched.Execute(func() { d.step(sched, it) })
	}
}

// apply feeds in to it, turning a panic into a TASK_PANIC error.
func apply[T, R any](it Iteratee[T, R], in Input[T]) (st Step[T, R], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.TaskPanic(r)
		}
	}()
	return it(in), nil
}
