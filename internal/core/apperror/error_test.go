package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactories(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"validation", NewValidation("bad input"), CodeValidation, http.StatusBadRequest},
		{"not found", NewNotFound("items", "abc"), CodeNotFound, http.StatusNotFound},
		{"insufficient stock", NewInsufficientStock("abc", "5", "2"), CodeInsufficientStock, http.StatusUnprocessableEntity},
		{"concurrent modification", NewConcurrentModification("items", "abc"), CodeConcurrentModification, http.StatusConflict},
		{"unauthorized", NewUnauthorized("invalid credentials"), CodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", NewForbidden("admin role required"), CodeForbidden, http.StatusForbidden},
		{"conflict", NewConflict("still has dependents"), CodeConflict, http.StatusConflict},
		{"duplicate", NewDuplicate("site", "code", "HQ"), CodeDuplicate, http.StatusConflict},
		{"internal", NewInternal(errors.New("boom")), CodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.status, GetHTTPStatus(tt.err))
		})
	}
}

func TestCodeHelpers(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFound("items", "abc")))
	assert.False(t, IsNotFound(NewValidation("nope")))
	assert.True(t, IsValidation(NewValidation("nope")))
	assert.True(t, IsDuplicate(NewDuplicate("user", "username", "alice")))
	assert.True(t, IsInsufficientStock(NewInsufficientStock("abc", "5", "2")))
	assert.True(t, IsConcurrentModification(NewConcurrentModification("items", "abc")))
	assert.False(t, IsNotFound(errors.New("plain")))
	assert.False(t, IsNotFound(nil))
}

func TestWrappedErrorsKeepCode(t *testing.T) {
	inner := NewNotFound("items", "abc")
	wrapped := fmt.Errorf("load item: %w", inner)

	assert.True(t, IsNotFound(wrapped))

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeNotFound, appErr.Code)
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewInternal(cause)

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "caused by")
}

func TestWithDetail(t *testing.T) {
	err := NewValidation("bad input").
		WithDetail("field", "code").
		WithDetail("max_length", 32)

	assert.Equal(t, "code", err.Details["field"])
	assert.Equal(t, 32, err.Details["max_length"])
}

func TestGetHTTPStatus_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("boom")))
}
