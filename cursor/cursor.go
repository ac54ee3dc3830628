package cursor

import (
	"context"

	"github.com/kbukum/pagestream/future"
)

// Paged is an externally supplied, server-driven paginated result set.
//
// Exhausted must be true exactly when FullyFetched is true and Available is 0.
// Next is only defined while Available is positive.
type Paged[T any] interface {
	// Available returns the number of fetched but unconsumed elements.
	Available() int
	// Exhausted reports that no more elements will ever be produced.
	Exhausted() bool
	// FullyFetched reports that the server has delivered its final page.
	FullyFetched() bool
	// FetchMore asynchronously requests the next page from the server.
	FetchMore(ctx context.Context) *future.Future[struct{}]
	// Next removes and returns the next buffered element.
	Next() (T, error)
}

// Page is one server response.
type Page[T any] struct {
	// Items are the elements of the page in server order.
	Items []T
	// NextToken continues the listing after this page.
	NextToken string
	// Last marks the final page; NextToken is ignored when set.
	Last bool
}

// PageFetcher fetches the page that follows token. The first call receives
// the start token, "" unless the cursor was resumed.
type PageFetcher[T any] func(ctx context.Context, token string) (Page[T], error)
