package trampoline

import (
	"context"

	"github.com/kbukum/pagestream/errors"
	"github.com/kbukum/pagestream/logger"
)

// Scheduler executes units of work.
type Scheduler interface {
	Execute(task func())
}

// Kind names a scheduler implementation in configuration.
type Kind string

const (
	KindTrampoline Kind = "trampoline"
	KindImmediate  Kind = "immediate"
)

// Factory creates a fresh scheduler for one drive of a consumer.
type Factory func() Scheduler

// FactoryFor returns the factory for kind. Unknown kinds fall back to the trampoline.
func FactoryFor(kind Kind, opts ...Option) Factory {
	if kind == KindImmediate {
		return func() Scheduler { return Immediate{} }
	}
	return func() Scheduler { return New(opts...) }
}

// Immediate runs each task directly on the caller's stack with no queueing.
// Use it only when the depth of chained tasks is known to be bounded.
type Immediate struct{}

// Execute runs task immediately.
func (Immediate) Execute(task func()) { task() }

// PanicHandler receives the error built from a recovered task panic.
type PanicHandler func(err *errors.AppError)

// Option configures a Trampoline.
type Option func(*Trampoline)

// WithLogger sets the logger used to report recovered task panics.
func WithLogger(log *logger.Logger) Option {
	return func(t *Trampoline) { t.log = log }
}

// WithPanicHandler registers a callback invoked for every recovered task panic.
func WithPanicHandler(h PanicHandler) Option {
	return func(t *Trampoline) { t.onPanic = h }
}

type schedulerKey struct{}

// NewContext returns a context carrying s.
func NewContext(ctx context.Context, s Scheduler) context.Context {
	return context.WithValue(ctx, schedulerKey{}, s)
}

// Lookup returns the scheduler attached to ctx, if any.
func Lookup(ctx context.Context) (Scheduler, bool) {
	s, ok := ctx.Value(schedulerKey{}).(Scheduler)
	return s, ok && s != nil
}

// FromContext returns the scheduler attached to ctx. Without one it calls
// fallback, or creates a new Trampoline when fallback is nil.
func FromContext(ctx context.Context, fallback Factory) Scheduler {
	if s, ok := Lookup(ctx); ok {
		return s
	}
	if fallback != nil {
		return fallback()
	}
	return New()
}
