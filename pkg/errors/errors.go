package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error
type Kind int

// Error kinds
const (
	KindInternal Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindValidation
	KindStorage
	KindDelivery
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindStorage:
		return "storage"
	case KindDelivery:
		return "delivery"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// AppError represents an application error
type AppError struct {
	Kind    Kind   `json:"-"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to an HTTP status
func (e *AppError) StatusCode() int {
	switch e.Kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindDelivery:
		return http.StatusBadGateway
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Public reports whether Message may be shown to API clients.
func (e *AppError) Public() bool {
	return e.StatusCode() < http.StatusInternalServerError
}

func Unauthenticated(message string) *AppError {
	if message == "" {
		message = "Unauthorized"
	}
	return &AppError{Kind: KindUnauthenticated, Message: message}
}

func Forbidden(message string) *AppError {
	if message == "" {
		message = "Forbidden"
	}
	return &AppError{Kind: KindForbidden, Message: message}
}

func NotFound(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func Validation(message string, err error) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Err: err}
}

func Storage(err error) *AppError {
	return &AppError{Kind: KindStorage, Message: "storage failure", Err: err}
}

func Delivery(err error) *AppError {
	return &AppError{Kind: KindDelivery, Message: "delivery failure", Err: err}
}

func RateLimited() *AppError {
	return &AppError{Kind: KindRateLimited, Message: "rate limit exceeded"}
}

func Internal(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: "internal server error", Err: err}
}

// KindOf returns the kind of the first AppError in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}
