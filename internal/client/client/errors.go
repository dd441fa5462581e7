package client

import (
	"errors"
	"net/http"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrRejected     = errors.New("request rejected")
)

// APIError is returned by every failed backend call. Message is what should
// be shown to the user: the server-provided message when there was one,
// otherwise a default for the operation.
type APIError struct {
	Op      string
	Status  int
	Message string
	Errors  []string
	Err     error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// mapStatus maps a non-2xx status to one of the sentinel errors.
func mapStatus(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrUnavailable
	default:
		return ErrRejected
	}
}

// MessageOf returns the user-facing message carried by err, or fallback if
// err is not an *APIError.
func MessageOf(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
