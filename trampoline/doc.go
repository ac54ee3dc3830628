// Package trampoline provides schedulers that run chained callbacks with
// bounded stack depth.
//
// A Trampoline turns a chain of tasks that schedule each other synchronously
// into an iterative queue drain: the outermost Execute call owns the queue and
// runs tasks in FIFO order, while any Execute call made from inside a running
// task only appends to that queue and returns. Draining a million chained
// steps therefore uses the same stack depth as draining one.
//
// A Trampoline is confined to the goroutine that drives it. Pass it
// explicitly, or attach it to a context with NewContext and retrieve it with
// FromContext. Immediate is the opt-out scheduler that runs every task
// directly on the caller's stack.
//
//	t := trampoline.New()
//	var step func(n int)
//	step = func(n int) {
//	    if n > 0 {
//	        t.Execute(func() { step(n - 1) })
//	    }
//	}
//	t.Execute(func() { step(1_000_000) })
package trampoline
