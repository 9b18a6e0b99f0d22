// Package apperr defines the error taxonomy shared by the broker, refresher and proxy,
// and how each kind is rendered on the HTTP surface.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers and for the HTTP layer.
type Kind int

const (
	Internal Kind = iota
	Unauthenticated
	InvalidArgument
	NotConnected
	TokenExpired
	ExternalAuthFailure
	ExternalAPIFailure
	StorageFailure
)

// Code returns the stable machine-readable code the UI switches on.
func (k Kind) Code() string {
	switch k {
	case Unauthenticated:
		return "UNAUTHENTICATED"
	case InvalidArgument:
		return "INVALID_ARGUMENT"
	case NotConnected:
		return "NOT_CONNECTED"
	case TokenExpired:
		return "TOKEN_EXPIRED"
	case ExternalAuthFailure:
		return "EXTERNAL_AUTH_FAILURE"
	case ExternalAPIFailure:
		return "EXTERNAL_API_FAILURE"
	case StorageFailure:
		return "STORAGE_FAILURE"
	default:
		return "INTERNAL"
	}
}

func (k Kind) String() string { return k.Code() }

// Error is a classified error. Message is safe to show to the end user;
// the wrapped cause is for logs only.
type Error struct {
	Kind    Kind
	Message string
	// ProviderStatus is the external provider's HTTP status, when the error came from it.
	ProviderStatus int
	Err            error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind.Code(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error without a cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies err under kind with a display-safe message.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Provider creates an ExternalAPIFailure carrying the provider's status code.
func Provider(status int, message string, err error) *Error {
	return &Error{Kind: ExternalAPIFailure, Message: message, ProviderStatus: status, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps an error to the status code returned to the client.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case Unauthenticated, NotConnected, TokenExpired:
		return http.StatusUnauthorized
	case InvalidArgument, ExternalAuthFailure:
		return http.StatusBadRequest
	case ExternalAPIFailure:
		if e.ProviderStatus >= 400 && e.ProviderStatus < 600 {
			return e.ProviderStatus
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message that may be shown to the client.
// Storage and internal failures never leak their detail.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "Internal server error"
	}
	switch e.Kind {
	case StorageFailure, Internal:
		return "Internal server error"
	}
	return e.Message
}
