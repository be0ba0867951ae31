package contextutils

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := &AppError{Code: ErrorCodeInvalidInput, Severity: SeverityWarn, Message: "Invalid input"}
	assert.Equal(t, "INVALID_INPUT: Invalid input", err.Error())

	withDetails := &AppError{Code: ErrorCodeInvalidInput, Severity: SeverityWarn, Message: "Invalid input", Details: "answers missing"}
	assert.Equal(t, "INVALID_INPUT: Invalid input - answers missing", withDetails.Error())
}

func TestAppError_Is(t *testing.T) {
	err := WrapError(ErrQuestionNotOwned, "reconciling responses")
	assert.True(t, errors.Is(err, ErrQuestionNotOwned))
	assert.False(t, errors.Is(err, ErrQuestionNotFound))
}

func TestWrapError_PreservesCode(t *testing.T) {
	wrapped := WrapError(ErrRecordNotFound, "loading question")
	var appErr *AppError
	require.True(t, AsError(wrapped, &appErr))
	assert.Equal(t, ErrorCodeRecordNotFound, appErr.Code)
	assert.Equal(t, SeverityInfo, appErr.Severity)
	assert.Equal(t, "loading question", appErr.Message)
}

func TestWrapError_PlainError(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := WrapError(cause, "saving responses")
	var appErr *AppError
	require.True(t, AsError(wrapped, &appErr))
	assert.Equal(t, ErrorCodeInternalError, appErr.Code)
	assert.Equal(t, cause, errors.Unwrap(wrapped))
}

func TestWrapError_Nil(t *testing.T) {
	assert.Nil(t, WrapError(nil, "no-op"))
	assert.Nil(t, WrapErrorf(nil, "no-op %d", 1))
}

func TestWrapErrorf_WithWrapVerb(t *testing.T) {
	cause := errors.New("bad date")
	wrapped := WrapErrorf(cause, "parsing target date: %w", cause)
	assert.True(t, errors.Is(wrapped, cause))
}

func TestWrapErrorf_Formats(t *testing.T) {
	wrapped := WrapErrorf(ErrQuestionNotFound, "question %d", 42)
	var appErr *AppError
	require.True(t, AsError(wrapped, &appErr))
	assert.Equal(t, "question 42", appErr.Message)
	assert.Equal(t, ErrorCodeQuestionNotFound, appErr.Code)
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrorCodeUnauthorized, GetErrorCode(ErrUnauthorized))
	assert.Equal(t, ErrorCodeInternalError, GetErrorCode(fmt.Errorf("plain")))
}

func TestGetErrorSeverity(t *testing.T) {
	assert.Equal(t, SeverityWarn, GetErrorSeverity(ErrInvalidInput))
	assert.Equal(t, SeverityError, GetErrorSeverity(fmt.Errorf("plain")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrDatabaseConnection))
	assert.True(t, IsRetryable(ErrTimeout))
	assert.False(t, IsRetryable(ErrInvalidInput))
	assert.False(t, IsRetryable(fmt.Errorf("plain")))
}

func TestAppError_ToJSON(t *testing.T) {
	err := NewAppErrorWithCause(ErrorCodeDatabaseQuery, SeverityError, "Database query failed", "timeout", errors.New("context deadline exceeded"))
	payload := err.ToJSON()
	assert.Equal(t, "DATABASE_QUERY_ERROR", payload["code"])
	assert.Equal(t, "Database query failed", payload["message"])
	assert.Equal(t, "timeout", payload["details"])
	assert.Equal(t, "context deadline exceeded", payload["cause"])
}

func TestAppError_ToJSON_InfoHidesCause(t *testing.T) {
	err := NewAppErrorWithCause(ErrorCodeRecordNotFound, SeverityInfo, "Record not found", "", errors.New("sql: no rows"))
	payload := err.ToJSON()
	_, ok := payload["cause"]
	assert.False(t, ok)
}

func TestUserIDContext(t *testing.T) {
	ctx := WithUserID(context.Background(), 7)
	assert.Equal(t, 7, GetUserIDFromContext(ctx))
	assert.Equal(t, 0, GetUserIDFromContext(context.Background()))
}
