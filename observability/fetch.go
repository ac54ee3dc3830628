package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/pagestream/cursor"
	"github.com/kbukum/pagestream/logger"
)

// TracedFetcher wraps fetch so that every page request runs in its own span
// and, when metrics is non-nil, has its duration recorded.
func TracedFetcher[T any](fetch cursor.PageFetcher[T], backend string, metrics *Metrics) cursor.PageFetcher[T] {
	return func(ctx context.Context, token string) (cursor.Page[T], error) {
		ctx, span := StartSpan(ctx, SpanFetch)
		defer span.End()
		span.SetAttributes(
			attribute.String(AttrBackend, backend),
			attribute.String(AttrToken, token),
		)
		if id := logger.StreamIDFromContext(ctx); id != "" {
			span.SetAttributes(attribute.String(AttrStreamID, id))
		}

		start := time.Now()
		page, err := fetch(ctx, token)
		if metrics != nil {
			metrics.RecordFetch(ctx, backend, time.Since(start), err)
		}
		if err != nil {
			SetSpanError(span, err)
			return page, err
		}
		span.SetAttributes(
			attribute.Int(AttrItems, len(page.Items)),
			attribute.Bool(AttrLastPage, page.Last || page.NextToken == ""),
		)
		return page, nil
	}
}
