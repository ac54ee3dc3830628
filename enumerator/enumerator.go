package enumerator

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/pagestream/cursor"
	"github.com/kbukum/pagestream/errors"
	"github.com/kbukum/pagestream/future"
	"github.com/kbukum/pagestream/logger"
	"github.com/kbukum/pagestream/trampoline"
)

// State is the drive state of an enumerator.
type State int

const (
	// StateAwaitingStep means the next step may run immediately.
	StateAwaitingStep State = iota
	// StateFetchInFlight means the buffer is empty and the drive waits for a page.
	StateFetchInFlight
	// StateTerminated is absorbing: no further cursor or consumer calls happen.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateAwaitingStep:
		return "awaiting_step"
	case StateFetchInFlight:
		return "fetch_in_flight"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Stats is a snapshot of enumerator counters.
type Stats struct {
	ID          string `json:"id"`
	State       State  `json:"state"`
	Delivered   uint64 `json:"delivered"`
	Fetches     uint64 `json:"fetches"`
	Prefetches  uint64 `json:"prefetches"`
	Suspensions uint64 `json:"suspensions"`
}

// Enumerator feeds the elements of a paged cursor to a single consumer.
// It can be consumed once, through Run or Iterator.
type Enumerator[T any] struct {
	id     string
	cursor cursor.Paged[T]
	cfg    Config
	sched  trampoline.Factory
	log    *logger.Logger
	obs    Observer

	mu       sync.Mutex
	claimed  bool
	state    State
	termErr  error
	inflight *future.Future[struct{}]
	fetchErr error
	stats    Stats

	// fetchCtx outlives any single Next or Run call and is cancelled on
	// termination.
	fetchCtx    context.Context
	cancelFetch context.CancelFunc
}

// Option configures an Enumerator.
type Option[T any] func(*Enumerator[T])

// WithConfig replaces the whole configuration.
func WithConfig[T any](cfg Config) Option[T] {
	return func(e *Enumerator[T]) { e.cfg = cfg }
}

// WithLowWaterMark sets the prefetch threshold.
func WithLowWaterMark[T any](n int) Option[T] {
	return func(e *Enumerator[T]) { e.cfg.LowWaterMark = n }
}

// WithPrefetchDisabled turns read-ahead off.
func WithPrefetchDisabled[T any]() Option[T] {
	return func(e *Enumerator[T]) { e.cfg.PrefetchDisabled = true }
}

// WithScheduler overrides the scheduler factory selected by Config.Scheduler.
func WithScheduler[T any](f trampoline.Factory) Option[T] {
	return func(e *Enumerator[T]) { e.sched = f }
}

// WithLogger sets the logger.
func WithLogger[T any](log *logger.Logger) Option[T] {
	return func(e *Enumerator[T]) { e.log = log }
}

// WithObserver registers lifecycle callbacks.
func WithObserver[T any](obs Observer) Option[T] {
	return func(e *Enumerator[T]) { e.obs = obs }
}

// WithID sets the stream id used in logs and stats.
func WithID[T any](id string) Option[T] {
	return func(e *Enumerator[T]) { e.id = id }
}

// New creates an enumerator over c.
func New[T any](c cursor.Paged[T], opts ...Option[T]) *Enumerator[T] {
	e := &Enumerator[T]{cursor: c, cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	e.cfg.ApplyDefaults()
	if e.id == "" {
		e.id = uuid.NewString()
	}
	if e.log == nil {
		e.log = logger.Get("enumerator")
	}
	e.log = e.log.WithFields(logger.Fields(logger.FieldStreamID, e.id))
	if e.obs == nil {
		e.obs = nopObserver{}
	}
	if e.sched == nil {
		e.sched = trampoline.FactoryFor(trampoline.Kind(e.cfg.Scheduler), trampoline.WithLogger(e.log))
	}
	e.stats.ID = e.id
	return e
}

// ID returns the stream id.
func (e *Enumerator[T]) ID() string { return e.id }

// Config returns the effective configuration.
func (e *Enumerator[T]) Config() Config { return e.cfg }

// State returns the current drive state.
func (e *Enumerator[T]) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Err returns the terminal error, nil while running or after a clean finish.
func (e *Enumerator[T]) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.termErr
}

// Stats returns a snapshot of the counters.
func (e *Enumerator[T]) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.stats
	s.State = e.state
	return s
}

func (e *Enumerator[T]) claim() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.claimed {
		return errors.New(errors.ErrCodeClosed, "enumerator already consumed").
			WithDetail(logger.FieldStreamID, e.id)
	}
	e.claimed = true
	e.log.Debug("stream started", logger.Fields(
		"low_water_mark", e.cfg.LowWaterMark,
		"prefetch_disabled", e.cfg.PrefetchDisabled,
	))
	return nil
}

func (e *Enumerator[T]) terminated() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == StateTerminated
}

func (e *Enumerator[T]) setState(s State) {
	e.mu.Lock()
	if e.state != StateTerminated {
		e.state = s
	}
	e.mu.Unlock()
}

// terminate moves to StateTerminated. Only the first call wins.
func (e *Enumerator[T]) terminate(err error) bool {
	e.mu.Lock()
	if e.state == StateTerminated {
		e.mu.Unlock()
		return false
	}
	e.state = StateTerminated
	e.termErr = err
	stats := e.stats
	cancel := e.cancelFetch
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	fields := logger.Fields(
		logger.FieldElements, stats.Delivered,
		logger.FieldFetches, stats.Fetches,
	)
	switch {
	case err == nil:
		e.log.Debug("stream finished", fields)
	case errors.Is(err, errors.ErrClosed):
		e.log.Debug("stream closed", fields)
	default:
		e.log.WithError(err).Warn("stream failed", fields)
	}
	e.obs.OnTerminate(err)
	return true
}

// pendingFetchErr returns the error of the last completed fetch, if any.
func (e *Enumerator[T]) pendingFetchErr() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fetchErr
}

// maybePrefetch keeps one fetch in flight while the buffer is below the
// low-water mark and the server has more pages.
func (e *Enumerator[T]) maybePrefetch(ctx context.Context) {
	if !e.cfg.prefetchEnabled() {
		return
	}
	e.mu.Lock()
	busy := e.inflight != nil
	e.mu.Unlock()
	if busy {
		return
	}
	avail := e.cursor.Available()
	if avail >= e.cfg.LowWaterMark || e.cursor.FullyFetched() {
		return
	}
	e.issueFetch(ctx, avail > 0)
}

// awaitFetch returns the fetch in flight, issuing one if there is none.
func (e *Enumerator[T]) awaitFetch(ctx context.Context) *future.Future[struct{}] {
	e.mu.Lock()
	f := e.inflight
	e.mu.Unlock()
	if f != nil {
		return f
	}
	return e.issueFetch(ctx, false)
}

func (e *Enumerator[T]) issueFetch(ctx context.Context, prefetch bool) *future.Future[struct{}] {
	e.mu.Lock()
	e.stats.Fetches++
	if prefetch {
		e.stats.Prefetches++
	}
	e.mu.Unlock()
	e.obs.OnFetch(prefetch)

	f := e.cursor.FetchMore(e.fetchContext(ctx))
	e.mu.Lock()
	if !f.IsCompleted() {
		e.inflight = f
	}
	e.mu.Unlock()
	f.OnComplete(func(_ struct{}, err error) { e.settle(f, err) })
	return f
}

// fetchContext returns the context page requests run under. It keeps the
// values of the first caller's ctx but not its deadline or cancellation, so a
// per-call timeout on Next never aborts a read-ahead.
func (e *Enumerator[T]) fetchContext(ctx context.Context) context.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fetchCtx == nil {
		base := logger.ContextWithStreamID(context.WithoutCancel(ctx), e.id)
		e.fetchCtx, e.cancelFetch = context.WithCancel(base)
	}
	return e.fetchCtx
}

// settle records the outcome of fetch f. It is idempotent. Failures of
// fetches that finish after termination are dropped: they were cancelled by it.
func (e *Enumerator[T]) settle(f *future.Future[struct{}], err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inflight == f {
		e.inflight = nil
	}
	if err != nil && e.fetchErr == nil && e.state != StateTerminated {
		e.fetchErr = err
	}
}

func (e *Enumerator[T]) delivered() {
	e.mu.Lock()
	e.stats.Delivered++
	e.mu.Unlock()
	e.obs.OnElement()
}

func (e *Enumerator[T]) suspended() {
	e.mu.Lock()
	e.stats.Suspensions++
	if e.state != StateTerminated {
		e.state = StateFetchInFlight
	}
	e.mu.Unlock()
	e.obs.OnSuspend()
}
