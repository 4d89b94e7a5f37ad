// Package apierr defines the request-terminal error taxonomy shared by the
// gateways and the HTTP layer. Every failing request surfaces exactly one
// Kind plus a human-readable detail; nothing is retried internally.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the machine-readable classification of a failure.
type Kind string

const (
	KindUnauthenticated  Kind = "unauthenticated"
	KindForbidden        Kind = "forbidden"
	KindNotFound         Kind = "not_found"
	KindInvalidOperation Kind = "invalid_operation"
	KindTimeout          Kind = "timeout"
	KindCommandNotFound  Kind = "command_not_found"
	KindInternal         Kind = "internal"
)

// HTTPStatus maps the kind to its transport status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidOperation:
		return http.StatusBadRequest
	case KindTimeout:
		return http.StatusRequestTimeout
	case KindCommandNotFound:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Error carries a failure kind plus a caller-facing detail message.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// New builds an *Error with a formatted detail message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf extracts the Kind from err. Errors outside the taxonomy are
// classified as internal.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindInternal
}

// Detail returns the caller-facing message for err. Internal errors keep
// their full text: this server is operated by the machine owner, there is
// no second audience to hide details from.
func Detail(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return err.Error()
}

// HTTPStatus returns the transport status code for err.
func HTTPStatus(err error) int {
	return KindOf(err).HTTPStatus()
}
