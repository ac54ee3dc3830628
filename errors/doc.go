// Package errors provides the structured error type shared by every
// pagestream package.
//
// Failures that cross a package boundary are reported as *AppError values
// carrying a machine-readable code, a retryable flag and the underlying cause.
// Callers inspect them with the standard library (errors.Is / errors.As) or
// with the helpers in this package (Code, IsRetryable, AsAppError).
package errors
