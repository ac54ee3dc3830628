package trampoline

import (
	"github.com/kbukum/pagestream/errors"
	"github.com/kbukum/pagestream/logger"
)

// Trampoline is a stack-safe Scheduler. It must only be used from one goroutine.
type Trampoline struct {
	queue    []func()
	head     int
	draining bool

	log     *logger.Logger
	onPanic PanicHandler

	executed uint64
	panics   uint64
}

// New creates an idle Trampoline.
func New(opts ...Option) *Trampoline {
	t := &Trampoline{}
	for _, opt := range opts {
		opt(t)
	}
	if t.log == nil {
		t.log = logger.Get("trampoline")
	}
	return t
}

// Execute runs task. Called outside a drain, it starts one: the task is queued
// and the queue is drained in FIFO order until empty, then discarded. Called
// from a task that is being drained, it only appends task to the queue.
func (t *Trampoline) Execute(task func()) {
	if t.draining {
		t.queue = append(t.queue, task)
		return
	}

	t.draining = true
	t.queue = append(make([]func(), 0, 8), task)
	t.head = 0
	defer t.reset()

	for {
		next, ok := t.pop()
		if !ok {
			return
		}
		t.run(next)
	}
}

// Draining reports whether a drain loop is active.
func (t *Trampoline) Draining() bool { return t.draining }

// Pending returns the number of queued tasks not yet started.
func (t *Trampoline) Pending() int { return len(t.queue) - t.head }

// Executed returns the number of tasks run so far, including panicking ones.
func (t *Trampoline) Executed() uint64 { return t.executed }

// Panics returns the number of recovered task panics.
func (t *Trampoline) Panics() uint64 { return t.panics }

func (t *Trampoline) pop() (func(), bool) {
	if t.head >= len(t.queue) {
		return nil, false
	}
	task := t.queue[t.head]
	t.queue[t.head] = nil
	t.head++
	if t.head == len(t.queue) {
		// Chains enqueue one task per step; rewinding keeps the queue O(1).
		t.queue = t.queue[:0]
		t.head = 0
	}
	return task, true
}

func (t *Trampoline) run(task func()) {
	t.executed++
	defer func() {
		if r := recover(); r != nil {
			t.panics++
			err := errors.TaskPanic(r).WithDetail("pending", t.Pending())
			t.log.Error("scheduled task panicked", logger.Fields(
				logger.FieldError, err.Cause.Error(),
				"pending", t.Pending(),
			))
			if t.onPanic != nil {
				t.onPanic(err)
			}
		}
	}()
	task()
}

func (t *Trampoline) reset() {
	t.queue = nil
	t.head = 0
	t.draining = false
}
