package enumerator

import (
	"context"
	stderrors "errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/kbukum/pagestream/cursor"
	"github.com/kbukum/pagestream/cursor/cursortest"
	"github.com/kbukum/pagestream/errors"
	"github.com/kbukum/pagestream/future"
	"github.com/kbukum/pagestream/logger"
	"github.com/kbukum/pagestream/trampoline"
)

func TestMain(m *testing.M) {
	logger.SetGlobalLogger(logger.Nop())
	logger.Register("enumerator", logger.Nop())
	logger.Register("trampoline", logger.Nop())
	goleak.VerifyTestMain(m)
}

func wait[R any](t *testing.T, f *future.Future[R]) (R, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := f.Wait(ctx)
	if stderrors.Is(err, context.DeadlineExceeded) && !f.IsCompleted() {
		t.Fatal("timed out waiting for stream result")
	}
	return v, err
}

func assertNoViolations[T any](t *testing.T, c *cursortest.Cursor[T]) {
	t.Helper()
	if v := c.Violations(); len(v) > 0 {
		t.Fatalf("cursor contract violations: %v", v)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRun_FullyFetchedBuffer(t *testing.T) {
	c := cursortest.New([]int{1, 2, 3})
	got, err := wait(t, Run(context.Background(), New[int](c), Collect[int]()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalInts(got, []int{1, 2, 3}) {
		t.Fatalf("got %v, want [1 2 3]", got)
	}
	if c.FetchCalls() != 0 {
		t.Errorf("FetchCalls = %d, want 0", c.FetchCalls())
	}
	assertNoViolations(t, c)
}

func TestRun_EmptyBufferFetchesOnce(t *testing.T) {
	c := cursortest.New(nil, []int{4, 5})
	got, err := wait(t, Run(context.Background(), New[int](c), Collect[int]()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalInts(got, []int{4, 5}) {
		t.Fatalf("got %v, want [4 5]", got)
	}
	if c.FetchCalls() != 1 {
		t.Errorf("FetchCalls = %d, want 1", c.FetchCalls())
	}
	assertNoViolations(t, c)
}

func TestRun_SuspendsUntilFetchCompletes(t *testing.T) {
	c := cursortest.New(nil, []int{4, 5}).Manual()
	e := New[int](c)
	f := Run(context.Background(), e, Collect[int]())

	if f.IsCompleted() {
		t.Fatal("stream completed before the page arrived")
	}
	if e.State() != StateFetchInFlight {
		t.Errorf("state = %v, want %v", e.State(), StateFetchInFlight)
	}
	if c.FetchCalls() != 1 || c.NextCalls() != 0 {
		t.Fatalf("FetchCalls=%d NextCalls=%d before release", c.FetchCalls(), c.NextCalls())
	}

	if !c.Release() {
		t.Fatal("no pending fetch")
	}
	got, err := wait(t, f)
	if err != nil || !equalInts(got, []int{4, 5}) {
		t.Fatalf("got %v, %v", got, err)
	}
	if c.FetchCalls() != 1 {
		t.Errorf("FetchCalls = %d, want 1", c.FetchCalls())
	}
	if e.State() != StateTerminated {
		t.Errorf("state = %v, want terminated", e.State())
	}
	assertNoViolations(t, c)
}

func TestRun_PrefetchTrigger(t *testing.T) {
	tests := []struct {
		name     string
		buffered int
		mark     int
		want     int
	}{
		{"below mark", 5, 10, 1},
		{"one below mark", 9, 10, 1},
		{"at mark", 10, 10, 0},
		{"above mark", 11, 10, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			initial := make([]int, tc.buffered)
			for i := range initial {
				initial[i] = i
			}
			c := cursortest.New(initial, []int{100}).Manual()
			e := New[int](c, WithLowWaterMark[int](tc.mark))

			got, err := wait(t, Run(context.Background(), e, Take[int](1)))
			if err != nil || len(got) != 1 {
				t.Fatalf("got %v, %v", got, err)
			}
			if c.FetchCalls() != tc.want {
				t.Errorf("FetchCalls = %d, want %d", c.FetchCalls(), tc.want)
			}
			if s := e.Stats(); s.Prefetches != uint64(tc.want) {
				t.Errorf("Prefetches = %d, want %d", s.Prefetches, tc.want)
			}
			assertNoViolations(t, c)
		})
	}
}

func TestRun_OneFetchInFlight(t *testing.T) {
	c := cursortest.New([]int{1, 2, 3, 4, 5}, []int{6}).Manual()
	e := New[int](c, WithLowWaterMark[int](10))

	got, err := wait(t, Run(context.Background(), e, Take[int](4)))
	if err != nil || !equalInts(got, []int{1, 2, 3, 4}) {
		t.Fatalf("got %v, %v", got, err)
	}
	if c.FetchCalls() != 1 {
		t.Errorf("FetchCalls = %d, want 1 while the first fetch is pending", c.FetchCalls())
	}
	c.Release()
}

func TestRun_OrderAcrossPages(t *testing.T) {
	c := cursortest.New([]int{1, 2}, []int{3, 4}, []int{5}, []int{6, 7, 8})
	got, err := wait(t, Run(context.Background(), New[int](c, WithLowWaterMark[int](3)), Collect[int]()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalInts(got, []int{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Fatalf("got %v", got)
	}
	assertNoViolations(t, c)
}

func TestRun_AsyncPagesAcrossGoroutines(t *testing.T) {
	pages := make([][]int, 3)
	var want []int
	for p := range pages {
		for i := 0; i < 50; i++ {
			v := p*50 + i
			pages[p] = append(pages[p], v)
			want = append(want, v)
		}
	}

	got, err := wait(t, Run(context.Background(), New[int](cursor.FromPages(pages...)), Collect[int]()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalInts(got, want) {
		t.Fatalf("got %d elements, want %d in order", len(got), len(want))
	}
}

func TestRun_ManualFetchesAndPrefetch(t *testing.T) {
	c := cursortest.New(nil, []int{1, 2}, []int{3}).Manual()
	e := New[int](c)
	f := Run(context.Background(), e, Collect[int]())

	c.Release()
	if f.IsCompleted() {
		t.Fatal("stream completed before the second page")
	}
	if c.FetchCalls() != 2 {
		t.Fatalf("FetchCalls = %d, want 2 after the first page", c.FetchCalls())
	}
	c.Release()

	got, err := wait(t, f)
	if err != nil || !equalInts(got, []int{1, 2, 3}) {
		t.Fatalf("got %v, %v", got, err)
	}
	s := e.Stats()
	if s.Fetches != 2 || s.Prefetches != 1 || s.Suspensions != 2 || s.Delivered != 3 {
		t.Errorf("unexpected stats: %+v", s)
	}
	assertNoViolations(t, c)
}

func TestRun_PrefetchDisabled(t *testing.T) {
	c := cursortest.New([]int{1, 2}, []int{3}, []int{4}).Manual()
	e := New[int](c, WithPrefetchDisabled[int]())
	f := Run(context.Background(), e, Collect[int]())

	if c.FetchCalls() != 1 || c.NextCalls() != 2 {
		t.Fatalf("FetchCalls=%d NextCalls=%d, want a fetch only once the buffer ran dry",
			c.FetchCalls(), c.NextCalls())
	}
	c.Release()
	c.Release()

	got, err := wait(t, f)
	if err != nil || !equalInts(got, []int{1, 2, 3, 4}) {
		t.Fatalf("got %v, %v", got, err)
	}
	if s := e.Stats(); s.Prefetches != 0 || s.Fetches != 2 {
		t.Errorf("unexpected stats: %+v", s)
	}
	assertNoViolations(t, c)
}

func stackDepth() int {
	pcs := make([]uintptr, 512)
	return runtime.Callers(0, pcs)
}

func depthProbe(n int) (Iteratee[int, int], func() (first, deepest int)) {
	var count, first, deepest int
	var it Iteratee[int, int]
	it = func(in Input[int]) Step[int, int] {
		if in.IsEOF() {
			return Done[int](count)
		}
		count++
		if count == 1 || count%1000 == 0 || count == n {
			d := stackDepth()
			if count == 1 {
				first = d
			}
			deepest = max(deepest, d)
		}
		return Continue(it)
	}
	return it, func() (int, int) { return first, deepest }
}

func TestRun_StackBounded(t *testing.T) {
	const n = 1_000_000

	t.Run("buffered", func(t *testing.T) {
		items := make([]int, n)
		it, depths := depthProbe(n)
		got, err := wait(t, Run(context.Background(), New[int](cursor.FromSlice(items...)), it))
		if err != nil || got != n {
			t.Fatalf("got %d, %v", got, err)
		}
		if first, deepest := depths(); deepest > first+4 {
			t.Fatalf("stack grew from %d to %d frames", first, deepest)
		}
	})

	t.Run("fetching", func(t *testing.T) {
		pages := make([][]int, n/10)
		for i := range pages {
			pages[i] = make([]int, 10)
		}
		c := cursortest.New(nil, pages...)
		it, depths := depthProbe(n)
		got, err := wait(t, Run(context.Background(), New[int](c, WithPrefetchDisabled[int]()), it))
		if err != nil || got != n {
			t.Fatalf("got %d, %v", got, err)
		}
		if first, deepest := depths(); deepest > first+4 {
			t.Fatalf("stack grew from %d to %d frames", first, deepest)
		}
		if c.FetchCalls() != n/10 {
			t.Errorf("FetchCalls = %d, want %d", c.FetchCalls(), n/10)
		}
	})
}

func TestRun_TerminationIsAbsorbing(t *testing.T) {
	c := cursortest.New([]int{1, 2, 3, 4, 5})
	e := New[int](c)

	got, err := wait(t, Run(context.Background(), e, Take[int](2)))
	if err != nil || !equalInts(got, []int{1, 2}) {
		t.Fatalf("got %v, %v", got, err)
	}
	if c.NextCalls() != 2 {
		t.Errorf("NextCalls = %d, want 2", c.NextCalls())
	}

	_, err = wait(t, Run(context.Background(), e, Collect[int]()))
	if errors.Code(err) != errors.ErrCodeClosed {
		t.Fatalf("expected CLOSED on a second run, got %v", err)
	}
	_, ok, err := e.Iterator().Next(context.Background())
	if ok || errors.Code(err) != errors.ErrCodeClosed {
		t.Fatalf("expected CLOSED from iterator, got ok=%v err=%v", ok, err)
	}
	if c.NextCalls() != 2 || c.FetchCalls() != 0 {
		t.Errorf("cursor touched after termination: next=%d fetch=%d", c.NextCalls(), c.FetchCalls())
	}
	if e.State() != StateTerminated || e.Err() != nil {
		t.Errorf("state=%v err=%v", e.State(), e.Err())
	}
}

func TestRun_SourceFailures(t *testing.T) {
	boom := stderrors.New("boom")

	t.Run("fetch with empty buffer", func(t *testing.T) {
		c := cursortest.New(nil, []int{1}).FailFetch(boom)
		_, err := wait(t, Run(context.Background(), New[int](c), Collect[int]()))
		if errors.Code(err) != errors.ErrCodeSourceFailure || !stderrors.Is(err, boom) {
			t.Fatalf("expected SOURCE_FAILURE wrapping boom, got %v", err)
		}
		if c.NextCalls() != 0 {
			t.Errorf("NextCalls = %d, want 0", c.NextCalls())
		}
	})

	t.Run("prefetch while buffered", func(t *testing.T) {
		c := cursortest.New([]int{1, 2}, []int{3}).FailFetch(boom)
		e := New[int](c)
		var seen []int
		_, err := wait(t, Run(context.Background(), e, ForEach(func(v int) error {
			seen = append(seen, v)
			return nil
		})))
		if errors.Code(err) != errors.ErrCodeSourceFailure {
			t.Fatalf("expected SOURCE_FAILURE, got %v", err)
		}
		if !equalInts(seen, []int{1}) {
			t.Errorf("seen %v, want the element taken before the failure surfaced", seen)
		}
	})

	t.Run("async fetch", func(t *testing.T) {
		c := cursortest.New(nil, []int{1}).Manual()
		f := Run(context.Background(), New[int](c), Collect[int]())
		c.Fail(boom)
		_, err := wait(t, f)
		if errors.Code(err) != errors.ErrCodeSourceFailure || !stderrors.Is(err, boom) {
			t.Fatalf("expected SOURCE_FAILURE wrapping boom, got %v", err)
		}
	})

	t.Run("next", func(t *testing.T) {
		c := cursortest.New([]int{1}).FailNext(boom)
		_, err := wait(t, Run(context.Background(), New[int](c), Collect[int]()))
		appErr, ok := errors.AsAppError(err)
		if !ok || appErr.Code != errors.ErrCodeSourceFailure || appErr.Details["operation"] != "next" {
			t.Fatalf("expected SOURCE_FAILURE from next, got %v", err)
		}
		if c.NextCalls() != 1 {
			t.Errorf("NextCalls = %d, want 1", c.NextCalls())
		}
	})
}

func TestRun_ConsumerError(t *testing.T) {
	stop := stderrors.New("stop")
	c := cursortest.New([]int{1, 2, 3, 4})
	_, err := wait(t, Run(context.Background(), New[int](c), ForEach(func(v int) error {
		if v == 2 {
			return stop
		}
		return nil
	})))
	if errors.Code(err) != errors.ErrCodeConsumerError || !stderrors.Is(err, stop) {
		t.Fatalf("expected CONSUMER_ERROR wrapping stop, got %v", err)
	}
	if c.NextCalls() != 2 {
		t.Errorf("NextCalls = %d, want 2", c.NextCalls())
	}
}

func TestRun_ContinueAfterEOF(t *testing.T) {
	var forever Iteratee[int, int]
	forever = func(Input[int]) Step[int, int] { return Continue(forever) }

	c := cursortest.New([]int{1})
	_, err := wait(t, Run(context.Background(), New[int](c), forever))
	if !errors.Is(err, errors.ErrDivergentIteratee) {
		t.Fatalf("expected ErrDivergentIteratee, got %v", err)
	}
	assertNoViolations(t, c)
}

func TestRun_ConsumerPanic(t *testing.T) {
	it := func(Input[int]) Step[int, int] { panic("bad consumer") }
	_, err := wait(t, Run(context.Background(), New[int](cursortest.New([]int{1})), it))
	if errors.Code(err) != errors.ErrCodeTaskPanic {
		t.Fatalf("expected TASK_PANIC, got %v", err)
	}
}

func TestRun_ContextCancelledWhileSuspended(t *testing.T) {
	c := cursortest.New(nil, []int{1}).Manual()
	ctx, cancel := context.WithCancel(context.Background())
	e := New[int](c)
	f := Run(ctx, e, Collect[int]())

	cancel()
	_, err := wait(t, f)
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	c.Release()
	if c.NextCalls() != 0 {
		t.Errorf("NextCalls = %d after cancellation", c.NextCalls())
	}
	if e.State() != StateTerminated {
		t.Errorf("state = %v", e.State())
	}
}

func TestRun_ContextCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := cursortest.New([]int{1, 2})
	_, err := wait(t, Run(ctx, New[int](c), Collect[int]()))
	if !stderrors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if c.NextCalls() != 0 || c.FetchCalls() != 0 {
		t.Error("cursor touched after cancellation")
	}
}

func TestRun_SchedulerFromContext(t *testing.T) {
	tr := trampoline.New()
	ctx := trampoline.NewContext(context.Background(), tr)

	var f *future.Future[[]int]
	tr.Execute(func() {
		f = Run(ctx, New[int](cursortest.New([]int{1, 2})), Collect[int]())
		if f.IsCompleted() {
			t.Error("stream ran inline instead of on the caller's drain")
		}
	})

	got, err := wait(t, f)
	if err != nil || !equalInts(got, []int{1, 2}) {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestRun_ImmediateScheduler(t *testing.T) {
	cfg := Config{LowWaterMark: 2, Scheduler: "immediate"}
	c := cursortest.New([]int{1}, []int{2, 3}, []int{4})
	got, err := wait(t, Run(context.Background(), New[int](c, WithConfig[int](cfg)), Collect[int]()))
	if err != nil || !equalInts(got, []int{1, 2, 3, 4}) {
		t.Fatalf("got %v, %v", got, err)
	}
}

type recordingObserver struct {
	mu         sync.Mutex
	elements   int
	fetches    int
	prefetches int
	suspends   int
	terminated []error
}

func (o *recordingObserver) OnElement() { o.mu.Lock(); o.elements++; o.mu.Unlock() }
func (o *recordingObserver) OnSuspend() { o.mu.Lock(); o.suspends++; o.mu.Unlock() }

func (o *recordingObserver) OnFetch(prefetch bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fetches++
	if prefetch {
		o.prefetches++
	}
}

func (o *recordingObserver) OnTerminate(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.terminated = append(o.terminated, err)
}

func TestRun_Observer(t *testing.T) {
	obs := &recordingObserver{}
	c := cursortest.New([]int{1}, []int{2, 3})
	e := New[int](c, WithObserver[int](obs), WithID[int]("stream-1"))

	if _, err := wait(t, Run(context.Background(), e, Collect[int]())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.elements != 3 || obs.fetches != 1 || obs.prefetches != 1 {
		t.Errorf("unexpected observations: %+v", obs)
	}
	if len(obs.terminated) != 1 || obs.terminated[0] != nil {
		t.Errorf("OnTerminate calls: %v", obs.terminated)
	}
	if e.Stats().ID != "stream-1" {
		t.Errorf("ID = %q", e.Stats().ID)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"zero mark", Config{LowWaterMark: 0}, false},
		{"immediate", Config{LowWaterMark: 5, Scheduler: "immediate"}, false},
		{"negative mark", Config{LowWaterMark: -1}, true},
		{"unknown scheduler", Config{LowWaterMark: 5, Scheduler: "threads"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
			if err != nil && errors.Code(err) != errors.ErrCodeInvalidConfig {
				t.Errorf("code = %s", errors.Code(err))
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	e := New[int](cursortest.New[int](nil))
	cfg := e.Config()
	if cfg.LowWaterMark != DefaultLowWaterMark || cfg.Scheduler != "trampoline" || cfg.PrefetchDisabled {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if e.ID() == "" {
		t.Error("expected a generated stream id")
	}
	if e.State() != StateAwaitingStep {
		t.Errorf("state = %v", e.State())
	}
}
