package controlplane

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failed control-plane call. HTTPStatus is zero for transport
// failures and 200 for GraphQL-level errors.
type Error struct {
	Operation  string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *Error) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("control plane %s failed (http %d): %s", e.Operation, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("control plane %s failed: %s", e.Operation, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether the remote resource does not exist.
func IsNotFound(err error) bool {
	var cpErr *Error
	if errors.As(err, &cpErr) {
		return cpErr.HTTPStatus == http.StatusNotFound
	}
	return false
}

// IsUnauthorized reports a rejected or expired API token.
func IsUnauthorized(err error) bool {
	var cpErr *Error
	if errors.As(err, &cpErr) {
		return cpErr.HTTPStatus == http.StatusUnauthorized || cpErr.HTTPStatus == http.StatusForbidden
	}
	return false
}
