package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Source errors (raised by a paged cursor or its backend)
const (
	// ErrCodeSourceFailure indicates the paged cursor failed to fetch or yield an element.
	ErrCodeSourceFailure ErrorCode = "SOURCE_FAILURE"
	// ErrCodeConnectionFailed indicates a failed connection to a backing store.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates a backing store call timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeNoElement indicates Next was called on an empty buffer.
	ErrCodeNoElement ErrorCode = "NO_ELEMENT"
)

// Consumer errors
const (
	// ErrCodeConsumerError indicates the consumer declared an error step.
	ErrCodeConsumerError ErrorCode = "CONSUMER_ERROR"
	// ErrCodeDivergentIteratee indicates the consumer asked to continue after end of stream.
	ErrCodeDivergentIteratee ErrorCode = "DIVERGENT_ITERATEE"
	// ErrCodeClosed indicates the stream was closed by its consumer.
	ErrCodeClosed ErrorCode = "CLOSED"
)

// Internal errors
const (
	// ErrCodeTaskPanic indicates a scheduled task panicked.
	ErrCodeTaskPanic ErrorCode = "TASK_PANIC"
	// ErrCodeInvalidConfig indicates a configuration value is out of range.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeSourceFailure:    true,
	ErrCodeConnectionFailed: true,
	ErrCodeTimeout:          true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
