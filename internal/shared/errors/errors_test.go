package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsMapStatusCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		typ  ErrorType
		code int
	}{
		{NewValidationError("bad"), ErrorTypeValidation, http.StatusBadRequest},
		{NewNotFoundError("missing"), ErrorTypeNotFound, http.StatusNotFound},
		{NewConflictError("dup"), ErrorTypeConflict, http.StatusConflict},
		{NewUnauthorizedError("who"), ErrorTypeUnauthorized, http.StatusUnauthorized},
		{NewForbiddenError("no"), ErrorTypeForbidden, http.StatusForbidden},
		{NewInternalError("boom"), ErrorTypeInternal, http.StatusInternalServerError},
		{NewBadRequestError("eh"), ErrorTypeBadRequest, http.StatusBadRequest},
		{NewConfigurationError("channel"), ErrorTypeConfiguration, http.StatusUnprocessableEntity},
		{NewUpstreamError("control plane"), ErrorTypeUpstream, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.err.Type)
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "not_found: instance not found", NewNotFoundError("instance not found").Error())
	assert.Equal(t, "validation_error: bad input (a; b)", NewValidationError("bad input", "a", "b").Error())
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("load: %w", NewNotFoundError("order not found"))

	assert.True(t, IsAppError(wrapped))
	assert.True(t, IsNotFoundError(wrapped))
	assert.False(t, IsConflictError(wrapped))
	assert.Nil(t, GetAppError(errors.New("plain")))
}

func TestIsDuplicateError(t *testing.T) {
	assert.True(t, IsDuplicateError(errors.New("Error 1062: Duplicate entry 'x' for key 'uk'")))
	assert.True(t, IsDuplicateError(errors.New("UNIQUE constraint failed: instances.sid")))
	assert.False(t, IsDuplicateError(errors.New("connection refused")))
	assert.False(t, IsDuplicateError(nil))
}
