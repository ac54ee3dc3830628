package cursor

import (
	"context"
	"sync"

	"github.com/kbukum/pagestream/errors"
	"github.com/kbukum/pagestream/future"
	"github.com/kbukum/pagestream/logger"
)

// Buffered is a Paged cursor that buffers pages returned by a PageFetcher.
// Concurrent FetchMore calls share one in-flight request, so pages are always
// appended in token order. It is safe for one consumer calling Next while a
// fetch runs in the background.
type Buffered[T any] struct {
	fetch PageFetcher[T]
	log   *logger.Logger

	mu           sync.Mutex
	buf          []T
	head         int
	token        string
	fullyFetched bool
	inflight     *future.Future[struct{}]

	pages   int
	fetched int
}

// BufferedOption configures a Buffered cursor.
type BufferedOption[T any] func(*Buffered[T])

// WithLogger sets the logger used for page-level debug output.
func WithLogger[T any](log *logger.Logger) BufferedOption[T] {
	return func(b *Buffered[T]) { b.log = log }
}

// WithStartToken resumes a listing from a previously returned token.
func WithStartToken[T any](token string) BufferedOption[T] {
	return func(b *Buffered[T]) { b.token = token }
}

// NewBuffered creates an empty cursor; nothing is fetched until FetchMore.
func NewBuffered[T any](fetch PageFetcher[T], opts ...BufferedOption[T]) *Buffered[T] {
	b := &Buffered[T]{fetch: fetch}
	for _, opt := range opts {
		opt(b)
	}
	if b.log == nil {
		b.log = logger.Get("cursor")
	}
	return b
}

// Available implements Paged.
func (b *Buffered[T]) Available() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf) - b.head
}

// FullyFetched implements Paged.
func (b *Buffered[T]) FullyFetched() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fullyFetched
}

// Exhausted implements Paged.
func (b *Buffered[T]) Exhausted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fullyFetched && len(b.buf) == b.head
}

// Next implements Paged.
func (b *Buffered[T]) Next() (T, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.head >= len(b.buf) {
		var zero T
		return zero, errors.ErrNoElement
	}
	v := b.buf[b.head]
	var zero T
	b.buf[b.head] = zero
	b.head++
	if b.head == len(b.buf) {
		b.buf = b.buf[:0]
		b.head = 0
	}
	return v, nil
}

// FetchMore implements Paged. It resolves immediately once the final page has
// been delivered, and returns the in-flight future if a fetch is running.
func (b *Buffered[T]) FetchMore(ctx context.Context) *future.Future[struct{}] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.fullyFetched {
		return future.Resolved(struct{}{})
	}
	if b.inflight != nil {
		return b.inflight
	}

	token := b.token
	b.inflight = future.Go(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, b.run(ctx, token)
	})
	return b.inflight
}

// run fetches the page at token and appends it. inflight is cleared before the
// future completes, so a FetchMore issued from a completion callback starts
// the next page.
func (b *Buffered[T]) run(ctx context.Context, token string) error {
	page, err := b.fetch(ctx, token)

	b.mu.Lock()
	b.inflight = nil
	if err != nil {
		b.mu.Unlock()
		b.log.Debug("page fetch failed", logger.ErrorFields("fetch_more", err))
		return err
	}
	b.buf = append(b.buf, page.Items...)
	b.pages++
	b.fetched += len(page.Items)
	b.token = page.NextToken
	if page.Last || page.NextToken == "" {
		b.fullyFetched = true
	}
	available := len(b.buf) - b.head
	last := b.fullyFetched
	b.mu.Unlock()

	b.log.Debug("page fetched", logger.Fields(
		"items", len(page.Items),
		logger.FieldAvailable, available,
		"last", last,
	))
	return nil
}

// Token returns the continuation token of the next page to fetch.
func (b *Buffered[T]) Token() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token
}

// Pages returns the number of pages fetched so far.
func (b *Buffered[T]) Pages() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pages
}

// Fetched returns the number of elements received from the server so far.
func (b *Buffered[T]) Fetched() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetched
}

var _ Paged[int] = (*Buffered[int])(nil)
