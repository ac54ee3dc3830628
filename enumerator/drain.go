package enumerator

import (
	"context"

	"github.com/kbukum/pagestream/cursor"
)

// Drain streams every element of c through fn and waits for the end of the
// stream. It returns the number of elements handed to fn.
func Drain[T any](ctx context.Context, c cursor.Paged[T], fn func(T) error, opts ...Option[T]) (int, error) {
	e := New(c, opts...)
	_, err := Run(ctx, e, ForEach(fn)).Wait(ctx)
	return int(e.Stats().Delivered), err
}
