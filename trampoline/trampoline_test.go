package trampoline

import (
	"context"
	"runtime"
	"testing"

	"github.com/kbukum/pagestream/errors"
	"github.com/kbukum/pagestream/logger"
)

func newTest(opts ...Option) *Trampoline {
	return New(append([]Option{WithLogger(logger.Nop())}, opts...)...)
}

func stackDepth() int {
	pcs := make([]uintptr, 4096)
	return runtime.Callers(0, pcs)
}

func TestTrampoline_FIFOOrder(t *testing.T) {
	tr := newTest()
	var order []string
	tr.Execute(func() {
		order = append(order, "a")
		tr.Execute(func() {
			order = append(order, "c")
			tr.Execute(func() { order = append(order, "e") })
		})
		tr.Execute(func() { order = append(order, "d") })
		order = append(order, "b")
	})

	want := []string{"a", "b", "c", "d", "e"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestTrampoline_NestedExecuteDoesNotRunInline(t *testing.T) {
	tr := newTest()
	ran := false
	tr.Execute(func() {
		tr.Execute(func() { ran = true })
		if ran {
			t.Fatal("nested task ran before the enclosing task returned")
		}
		if tr.Pending() != 1 {
			t.Fatalf("expected 1 pending task, got %d", tr.Pending())
		}
	})
	if !ran {
		t.Fatal("nested task never ran")
	}
}

func TestTrampoline_QueueDiscardedAfterDrain(t *testing.T) {
	tr := newTest()
	tr.Execute(func() {
		if !tr.Draining() {
			t.Fatal("expected drain to be active inside a task")
		}
	})
	if tr.Draining() || tr.Pending() != 0 || tr.queue != nil {
		t.Fatalf("queue should be discarded, draining=%v pending=%d", tr.Draining(), tr.Pending())
	}

	// A later unrelated top-level call starts a fresh drain.
	count := 0
	tr.Execute(func() { count++ })
	if count != 1 || tr.Executed() != 2 {
		t.Fatalf("count=%d executed=%d", count, tr.Executed())
	}
}

func TestTrampoline_PanicReportedAndDrainContinues(t *testing.T) {
	var reported []*errors.AppError
	tr := newTest(WithPanicHandler(func(err *errors.AppError) {
		reported = append(reported, err)
	}))

	after := false
	tr.Execute(func() {
		tr.Execute(func() { panic("boom") })
		tr.Execute(func() { after = true })
	})

	if !after {
		t.Fatal("task queued after a panicking task must still run")
	}
	if len(reported) != 1 {
		t.Fatalf("expected 1 reported panic, got %d", len(reported))
	}
	if reported[0].Code != errors.ErrCodeTaskPanic || reported[0].Cause.Error() != "boom" {
		t.Errorf("unexpected report %v", reported[0])
	}
	if tr.Panics() != 1 {
		t.Errorf("expected Panics()=1, got %d", tr.Panics())
	}
	if tr.Draining() {
		t.Error("queue should be discarded after drain")
	}
}

func TestTrampoline_TopLevelPanicDoesNotEscape(t *testing.T) {
	tr := newTest()
	tr.Execute(func() { panic("top") })
	if tr.Draining() {
		t.Fatal("queue should be discarded")
	}
}

func TestTrampoline_StackBounded(t *testing.T) {
	const n = 1_000_000
	tr := newTest()

	var first, last, count int
	var step func(i int)
	step = func(i int) {
		count++
		switch i {
		case 0:
			first = stackDepth()
		case n - 1:
			last = stackDepth()
			return
		}
		tr.Execute(func() { step(i + 1) })
	}
	tr.Execute(func() { step(0) })

	if count != n {
		t.Fatalf("ran %d steps, want %d", count, n)
	}
	if last != first {
		t.Fatalf("stack depth grew from %d to %d", first, last)
	}
	if cap(tr.queue) != 0 {
		t.Fatalf("queue retained after drain")
	}
}

func TestImmediate_RunsInline(t *testing.T) {
	var s Scheduler = Immediate{}
	var order []int
	s.Execute(func() {
		s.Execute(func() { order = append(order, 1) })
		order = append(order, 2)
	})
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("expected inline execution [1 2], got %v", order)
	}
}

func TestFactoryFor(t *testing.T) {
	if _, ok := FactoryFor(KindImmediate)().(Immediate); !ok {
		t.Error("expected Immediate scheduler")
	}
	if _, ok := FactoryFor(KindTrampoline)().(*Trampoline); !ok {
		t.Error("expected *Trampoline")
	}
	if _, ok := FactoryFor("unknown")().(*Trampoline); !ok {
		t.Error("unknown kinds should fall back to *Trampoline")
	}
	f := FactoryFor(KindTrampoline)
	if f() == f() {
		t.Error("factory must return a fresh scheduler per call")
	}
}

func TestContext(t *testing.T) {
	tr := newTest()
	ctx := NewContext(context.Background(), tr)
	if FromContext(ctx, FactoryFor(KindImmediate)) != tr {
		t.Error("expected attached scheduler to win over the fallback")
	}
	if _, ok := FromContext(context.Background(), nil).(*Trampoline); !ok {
		t.Error("expected a fresh trampoline when none is attached")
	}
	if _, ok := FromContext(context.Background(), FactoryFor(KindImmediate)).(Immediate); !ok {
		t.Error("expected the fallback factory when none is attached")
	}
}

func TestLookup(t *testing.T) {
	if _, ok := Lookup(context.Background()); ok {
		t.Error("expected no scheduler on a bare context")
	}
	ctx := NewContext(context.Background(), Immediate{})
	s, ok := Lookup(ctx)
	if !ok {
		t.Fatal("expected attached scheduler")
	}
	if _, isImmediate := s.(Immediate); !isImmediate {
		t.Errorf("got %T", s)
	}
}
