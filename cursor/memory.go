package cursor

import (
	"context"
	"strconv"
)

// FromSlice returns a fully fetched cursor over items.
func FromSlice[T any](items ...T) *Buffered[T] {
	b := NewBuffered[T](nil)
	b.buf = append([]T(nil), items...)
	b.fetched = len(items)
	b.fullyFetched = true
	return b
}

// FromPages returns a cursor that serves pages from memory, one per FetchMore.
// The last page is marked final. Nothing is buffered until the first fetch.
func FromPages[T any](pages ...[]T) *Buffered[T] {
	return NewBuffered(PagesFetcher(pages...))
}

// PagesFetcher serves pages[i] for token i. Tokens are decimal page indexes.
func PagesFetcher[T any](pages ...[]T) PageFetcher[T] {
	return func(ctx context.Context, token string) (Page[T], error) {
		if err := ctx.Err(); err != nil {
			return Page[T]{}, err
		}
		idx := 0
		if token != "" {
			n, err := strconv.Atoi(token)
			if err != nil {
				return Page[T]{}, err
			}
			idx = n
		}
		if idx >= len(pages) {
			return Page[T]{Last: true}, nil
		}
		page := Page[T]{Items: pages[idx]}
		if idx == len(pages)-1 {
			page.Last = true
		} else {
			page.NextToken = strconv.Itoa(idx + 1)
		}
		return page, nil
	}
}
