package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized      = errors.New("session expired or invalid")
	ErrForbidden         = errors.New("not allowed")
	ErrNotFound          = errors.New("not found")
	ErrBadRequest        = errors.New("request rejected by server")
	ErrServer            = errors.New("server error")
	ErrTransport         = errors.New("could not reach server")
	ErrMalformedResponse = errors.New("malformed response")
)

// Error is returned by every Client method that reached the network.
// Message carries the server's message when it sent one.
type Error struct {
	Op      string // "GET /leave-requests/leaves"
	Status  int    // 0 when no response was received
	Code    string
	Message string
	kind    error
	cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.kind.Error()
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (%d)", msg, e.Status)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

// Unwrap exposes both the kind sentinel and the underlying cause to errors.Is.
func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.kind, e.cause}
	}
	return []error{e.kind}
}

func kindForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status >= 500:
		return ErrServer
	default:
		return ErrBadRequest
	}
}

// ServerMessage returns the message the server attached to err, if any.
func ServerMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// IsUnauthorized reports whether err means the session is no longer valid.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
