// Package cursortest provides a scripted cursor.Paged implementation for
// tests. It records every call the consumer makes and flags calls that break
// the paged cursor contract, such as Next on an empty buffer or any call
// after the cursor reported exhaustion.
package cursortest

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/pagestream/cursor"
	"github.com/kbukum/pagestream/errors"
	"github.com/kbukum/pagestream/future"
)

// Cursor serves an initial buffer followed by scripted pages.
type Cursor[T any] struct {
	mu           sync.Mutex
	buf          []T
	pages        [][]T
	fullyFetched bool
	manual       bool
	pending      []*future.Promise[struct{}]
	fetchErr     error
	nextErr      error
	fetchCalls   int
	nextCalls    int
	violations   []string
	exhaustedAt  int
}

// New returns a cursor holding initial in its buffer with pages still on the
// server. With no pages it starts fully fetched. Each FetchMore delivers the
// next page and resolves synchronously.
func New[T any](initial []T, pages ...[]T) *Cursor[T] {
	return &Cursor[T]{
		buf:          append([]T(nil), initial...),
		pages:        pages,
		fullyFetched: len(pages) == 0,
		exhaustedAt:  -1,
	}
}

// Manual makes FetchMore return pending futures that complete only when the
// test calls Release or Fail.
func (c *Cursor[T]) Manual() *Cursor[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.manual = true
	return c
}

// FailFetch makes every subsequent fetch fail with err.
func (c *Cursor[T]) FailFetch(err error) *Cursor[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchErr = err
	return c
}

// FailNext makes every subsequent Next fail with err.
func (c *Cursor[T]) FailNext(err error) *Cursor[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextErr = err
	return c
}

// Available implements cursor.Paged.
func (c *Cursor[T]) Available() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buf)
}

// FullyFetched implements cursor.Paged.
func (c *Cursor[T]) FullyFetched() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fullyFetched
}

// Exhausted implements cursor.Paged.
func (c *Cursor[T]) Exhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	exhausted := c.exhaustedLocked()
	if exhausted && c.exhaustedAt < 0 {
		c.exhaustedAt = c.fetchCalls + c.nextCalls
	}
	return exhausted
}

func (c *Cursor[T]) exhaustedLocked() bool {
	return c.fullyFetched && len(c.buf) == 0
}

// FetchMore implements cursor.Paged.
func (c *Cursor[T]) FetchMore(_ context.Context) *future.Future[struct{}] {
	c.mu.Lock()
	c.fetchCalls++
	if c.exhaustedAt >= 0 {
		c.violations = append(c.violations, "FetchMore after exhaustion")
	}
	if c.manual {
		p, f := future.New[struct{}]()
		c.pending = append(c.pending, p)
		c.mu.Unlock()
		return f
	}
	err := c.deliverLocked()
	c.mu.Unlock()
	if err != nil {
		return future.Failed[struct{}](err)
	}
	return future.Resolved(struct{}{})
}

func (c *Cursor[T]) deliverLocked() error {
	if c.fetchErr != nil {
		return c.fetchErr
	}
	if len(c.pages) > 0 {
		c.buf = append(c.buf, c.pages[0]...)
		c.pages = c.pages[1:]
	}
	if len(c.pages) == 0 {
		c.fullyFetched = true
	}
	return nil
}

// Release delivers the next page and resolves the oldest pending fetch.
// It reports false if no fetch is pending.
func (c *Cursor[T]) Release() bool {
	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()
		return false
	}
	p := c.pending[0]
	c.pending = c.pending[1:]
	err := c.deliverLocked()
	c.mu.Unlock()
	p.Complete(struct{}{}, err)
	return true
}

// Fail rejects the oldest pending fetch with err without delivering a page.
func (c *Cursor[T]) Fail(err error) bool {
	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()
		return false
	}
	p := c.pending[0]
	c.pending = c.pending[1:]
	c.mu.Unlock()
	p.Reject(err)
	return true
}

// Next implements cursor.Paged.
func (c *Cursor[T]) Next() (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextCalls++
	var zero T
	if c.exhaustedAt >= 0 {
		c.violations = append(c.violations, "Next after exhaustion")
	}
	if c.nextErr != nil {
		return zero, c.nextErr
	}
	if len(c.buf) == 0 {
		c.violations = append(c.violations, fmt.Sprintf("Next on empty buffer (call %d)", c.nextCalls))
		return zero, errors.ErrNoElement
	}
	v := c.buf[0]
	c.buf = c.buf[1:]
	return v, nil
}

// FetchCalls returns the number of FetchMore calls.
func (c *Cursor[T]) FetchCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetchCalls
}

// NextCalls returns the number of Next calls.
func (c *Cursor[T]) NextCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nextCalls
}

// Pending returns the number of unresolved manual fetches.
func (c *Cursor[T]) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Violations returns every contract violation recorded so far.
func (c *Cursor[T]) Violations() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.violations...)
}

var _ cursor.Paged[int] = (*Cursor[int])(nil)
