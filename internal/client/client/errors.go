package client

import (
	"errors"
	"fmt"
)

// Kind classifies API failures.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindServer       Kind = "server"
	KindNetwork      Kind = "network"
	KindUnknown      Kind = "unknown"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrServer       = errors.New("server error")
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnknown      = errors.New("unknown error")
)

// MsgSessionExpired is the message of every Unauthorized error raised by the
// token layer. Callers treat it as a forced logout.
const MsgSessionExpired = "Session expired"

// APIError is returned by every HTTPClient call. It matches the sentinel of
// its Kind with errors.Is and unwraps to the underlying cause, if any.
type APIError struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Kind, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrServer:
		return e.Kind == KindServer
	case ErrUnavailable:
		return e.Kind == KindNetwork
	case ErrUnknown:
		return e.Kind == KindUnknown
	}
	return false
}

func unauthorized(status int) *APIError {
	return &APIError{Kind: KindUnauthorized, Message: MsgSessionExpired, Status: status}
}

func serverError(status int) *APIError {
	return &APIError{Kind: KindServer, Message: fmt.Sprintf("Request failed (%d)", status), Status: status}
}

func networkError(err error) *APIError {
	return &APIError{Kind: KindNetwork, Message: "Network unavailable", Err: err}
}

func unknownError(err error) *APIError {
	return &APIError{Kind: KindUnknown, Message: err.Error(), Err: err}
}

// IsUnauthorized reports whether err should force a logout.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
