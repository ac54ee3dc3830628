package errors

import (
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an *AppError with the same code, so sentinel
// values such as ErrNoElement match any error carrying their code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// SourceFailure wraps a failure raised by a paged cursor operation.
func SourceFailure(op string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeSourceFailure, Message: fmt.Sprintf("paged cursor %s failed", op),
		Retryable: true, Cause: cause,
		Details: map[string]any{"operation": op},
	}
}

// ConnectionFailed creates a new AppError for a failed connection to a backing store.
func ConnectionFailed(store string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeConnectionFailed, Message: fmt.Sprintf("unable to connect to %s", store),
		Retryable: true, Cause: cause,
		Details: map[string]any{"store": store},
	}
}

// Timeout creates a new AppError for a backing store call that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "the operation took too long",
		Retryable: true,
		Details:   map[string]any{"operation": operation},
	}
}

// ConsumerError wraps the cause a consumer declared through an error step.
func ConsumerError(cause error) *AppError {
	return &AppError{
		Code: ErrCodeConsumerError, Message: "consumer declared an error",
		Cause: cause,
	}
}

// TaskPanic reports a value recovered from a panicking scheduled task.
func TaskPanic(recovered any) *AppError {
	var cause error
	if err, ok := recovered.(error); ok {
		cause = err
	} else {
		cause = fmt.Errorf("%v", recovered)
	}
	return &AppError{
		Code: ErrCodeTaskPanic, Message: "scheduled task panicked",
		Cause: cause,
	}
}

// InvalidConfig creates a new AppError for an invalid configuration field.
func InvalidConfig(field, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidConfig, Message: fmt.Sprintf("invalid %s: %s", field, reason),
		Details: map[string]any{"field": field},
	}
}

// Internal creates a new AppError for an unexpected internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected error occurred",
		Cause: cause,
	}
}

// Sentinels matched by code through (*AppError).Is.
var (
	// ErrNoElement is returned by a cursor's Next when nothing is buffered.
	ErrNoElement = New(ErrCodeNoElement, "no buffered element")
	// ErrDivergentIteratee is reported when a consumer continues past end of stream.
	ErrDivergentIteratee = New(ErrCodeDivergentIteratee, "consumer continued after end of stream")
	// ErrClosed is reported by a stream after its consumer closed it.
	ErrClosed = New(ErrCodeClosed, "stream closed")
)
