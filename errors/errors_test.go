package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeConsumerError, "bad consumer")
	if err.Code != ErrCodeConsumerError {
		t.Errorf("expected code %s, got %s", ErrCodeConsumerError, err.Code)
	}
	if err.Message != "bad consumer" {
		t.Errorf("expected message 'bad consumer', got %q", err.Message)
	}
	if err.Retryable {
		t.Error("CONSUMER_ERROR should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out")
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestAppError_SourceFailure(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := SourceFailure("fetch_more", cause)
	if err.Code != ErrCodeSourceFailure {
		t.Errorf("expected SOURCE_FAILURE, got %s", err.Code)
	}
	if !err.Retryable {
		t.Error("SourceFailure should be retryable")
	}
	if err.Details["operation"] != "fetch_more" {
		t.Errorf("expected operation=fetch_more, got %v", err.Details["operation"])
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
}

func TestAppError_IsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("cursor: %w", New(ErrCodeNoElement, "empty page buffer"))
	if !Is(wrapped, ErrNoElement) {
		t.Error("expected wrapped NO_ELEMENT to match ErrNoElement")
	}
	if Is(wrapped, ErrClosed) {
		t.Error("NO_ELEMENT must not match ErrClosed")
	}
}

func TestAppError_TaskPanic(t *testing.T) {
	t.Run("non-error value", func(t *testing.T) {
		err := TaskPanic("boom")
		if err.Cause == nil || err.Cause.Error() != "boom" {
			t.Errorf("expected cause 'boom', got %v", err.Cause)
		}
	})
	t.Run("error value", func(t *testing.T) {
		cause := stderrors.New("kaput")
		err := TaskPanic(cause)
		if !stderrors.Is(err, cause) {
			t.Error("expected cause to be preserved")
		}
	})
}

func TestAppError_WithDetails(t *testing.T) {
	err := InvalidConfig("low_water_mark", "must be >= 0").
		WithDetail("value", -1).
		WithDetails(map[string]any{"source": "env"})
	if err.Details["field"] != "low_water_mark" {
		t.Errorf("expected field detail, got %v", err.Details)
	}
	if err.Details["value"] != -1 || err.Details["source"] != "env" {
		t.Errorf("expected merged details, got %v", err.Details)
	}
}

func TestCodeAndIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      ErrorCode
		retryable bool
	}{
		{"nil", nil, "", false},
		{"plain error", stderrors.New("x"), "", false},
		{"source failure", SourceFailure("next", nil), ErrCodeSourceFailure, true},
		{"wrapped consumer", fmt.Errorf("run: %w", ConsumerError(nil)), ErrCodeConsumerError, false},
		{"connection", ConnectionFailed("redis", nil), ErrCodeConnectionFailed, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Code(tc.err); got != tc.code {
				t.Errorf("Code() = %q, want %q", got, tc.code)
			}
			if got := IsRetryable(tc.err); got != tc.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tc.retryable)
			}
		})
	}
}

func TestAsAppError(t *testing.T) {
	if _, ok := AsAppError(stderrors.New("plain")); ok {
		t.Error("plain error should not convert")
	}
	appErr, ok := AsAppError(fmt.Errorf("wrap: %w", Internal(nil)))
	if !ok || appErr.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %v", appErr)
	}
	if !IsAppError(Timeout("scan")) {
		t.Error("Timeout should be an AppError")
	}
}
