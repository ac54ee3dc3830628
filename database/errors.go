package database

import (
	"context"
	stderrors "errors"
	"strings"

	"gorm.io/gorm"

	"github.com/kbukum/pagestream/errors"
)

var connectionPatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"i/o timeout",
	"no route to host",
	"network is unreachable",
	"connection closed",
	"driver: bad connection",
	"database is closed",
}

var transientPatterns = []string{
	"deadlock",
	"lock timeout",
	"database is locked",
	"too many connections",
}

func matches(err error, patterns []string) bool {
	msg := strings.ToLower(err.Error())
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// IsConnectionError checks if a database error is a connection error
// that might be resolved by retrying.
func IsConnectionError(err error) bool {
	return err != nil && matches(err, connectionPatterns)
}

// IsRetryableError determines if a database error should trigger a retry.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	return IsConnectionError(err) || matches(err, transientPatterns)
}

// FromDatabase converts a query error into an AppError whose Retryable flag
// drives cursor.WithRetry.
func FromDatabase(err error, op string) error {
	if err == nil {
		return nil
	}
	if _, ok := errors.AsAppError(err); ok {
		return err
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch {
	case IsConnectionError(err):
		return errors.ConnectionFailed("database", err).WithDetail("operation", op)
	case IsRetryableError(err):
		return errors.SourceFailure(op, err)
	case stderrors.Is(err, gorm.ErrInvalidField), stderrors.Is(err, gorm.ErrInvalidData):
		return errors.InvalidConfig("database.keyset", err.Error()).WithCause(err)
	default:
		return errors.Internal(err).WithDetail("operation", op)
	}
}
