package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPredicates(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		check  func(error) bool
		status int
	}{
		{"validation", NewValidationError("bad"), IsValidation, http.StatusBadRequest},
		{"invalid argument", NewInvalidArgumentError("bad"), IsInvalidArgument, http.StatusBadRequest},
		{"not found", NewNotFoundError("reader"), IsNotFound, http.StatusNotFound},
		{"conflict", NewConflictError("nothing to undo"), IsConflict, http.StatusConflict},
		{"internal", NewInternalError("boom"), IsInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(Wrap(tt.err, "outer")), "predicates see through Wrap")
			assert.Equal(t, tt.status, GetAppError(tt.err).HTTPStatus)
		})
	}

	assert.Nil(t, GetAppError(errors.New("plain")))
	assert.Nil(t, Wrap(nil, "outer"))
}

func TestWrap(t *testing.T) {
	err := Wrapf(NewNotFoundError("row"), "select %d", 3)
	assert.Equal(t, "select 3: row not found", GetAppError(err).Message)

	cause := errors.New("disk")
	err = Wrap(cause, "open scene")
	assert.True(t, IsInternal(err))
	assert.ErrorIs(t, err, cause)
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		debug   bool
		status  int
		errType string
		message string
	}{
		{"app error", NewConflictError("nothing to redo"), false, http.StatusConflict, "CONFLICT", "nothing to redo"},
		{"plain error hidden", errors.New("secret"), false, http.StatusInternalServerError, "INTERNAL", "An internal error occurred"},
		{"plain error in debug", errors.New("secret"), true, http.StatusInternalServerError, "INTERNAL", "secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewErrorHandler(zap.NewNop(), tt.debug).Handle(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.True(t, resp.Error)
			assert.Equal(t, tt.errType, resp.Type)
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}

func TestErrorHandler_DebugStackTrace(t *testing.T) {
	rec := httptest.NewRecorder()
	err := NewValidationError("bad").WithDetails(map[string]interface{}{"field": "dt"})
	NewErrorHandler(zap.NewNop(), true).Handle(rec, httptest.NewRequest(http.MethodGet, "/", nil), err)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "dt", resp.Details["field"])
	assert.Contains(t, resp.Details, "stack_trace")
	assert.Len(t, err.Details, 1, "handler does not modify the error")
}

func TestHandleStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	NewErrorHandler(zap.NewNop(), false).HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/", nil),
		http.StatusTooManyRequests, "rate limit exceeded")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "RATE_LIMITED", resp.Type)
}
