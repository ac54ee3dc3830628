// Package cursor defines the paged cursor capability consumed by the
// enumerator and a generic buffered implementation backed by a page fetcher.
//
// A paged cursor tracks elements the server has delivered but the consumer has
// not yet taken (Available), whether the server has sent its final page
// (FullyFetched) and whether nothing more will ever be produced (Exhausted).
// FetchMore requests the next page asynchronously and may run while buffered
// elements are still being consumed.
//
// Buffered turns any PageFetcher into a cursor. Backends (Redis SCAN, SQL
// keyset pages, S3 listings) only describe how to fetch one page after a
// continuation token; retry and circuit breaking are layered on the fetcher
// with WithRetry and WithBreaker.
package cursor
