// Package future provides a minimal single-assignment asynchronous result.
//
// A Promise is the write side and a Future the read side of one value that
// becomes available at most once. Paged cursors return futures from
// FetchMore, and the enumerator resolves a future with the consumer's final
// result. Completion can be observed by blocking (Wait), by selecting on
// Done, or by registering a callback with OnComplete.
package future
