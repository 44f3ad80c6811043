package domain

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeUnavailable     ErrorCode = "UNAVAILABLE"
	CodeInternal        ErrorCode = "INTERNAL"
)

var (
	ErrMissingArgument  = errors.New("missing required argument")
	ErrUnknownBackend   = errors.New("unknown snapshot backend")
	ErrUnknownTransport = errors.New("unknown server transport")
	ErrInvalidDataset   = errors.New("dataset is not valid JSON")
	ErrStoreClosed      = errors.New("snapshot store is closed")
)

type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Op == "" {
		if msg == "" {
			return string(e.Code)
		}
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	if msg == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func E(code ErrorCode, op, msg string, cause error) *Error {
	if msg == "" && cause != nil {
		msg = cause.Error()
	}
	return &Error{
		Code:    code,
		Op:      op,
		Message: msg,
		Cause:   cause,
	}
}

// HTTPError reports a non-2xx answer from the bazaar API.
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d", e.StatusCode)
	}
	if e.URL == "" {
		return fmt.Sprintf("bazaar api returned %s", status)
	}
	return fmt.Sprintf("bazaar api returned %s for %s", status, e.URL)
}

// NotFoundError reports a timestamp key with no stored snapshot.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	if e == nil {
		return ""
	}
	return "No data found for timestamp: " + e.Key
}

// IsNotFound reports whether err carries a NotFoundError or a NOT_FOUND domain error.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return true
	}
	code, ok := CodeFrom(err)
	return ok && code == CodeNotFound
}

func CodeFrom(err error) (ErrorCode, bool) {
	if err == nil {
		return "", false
	}
	var domainErr *Error
	if errors.As(err, &domainErr) && domainErr.Code != "" {
		return domainErr.Code, true
	}
	var notFound *NotFoundError
	var httpErr *HTTPError
	switch {
	case errors.As(err, &notFound):
		return CodeNotFound, true
	case errors.As(err, &httpErr):
		return CodeUnavailable, true
	case errors.Is(err, ErrMissingArgument), errors.Is(err, ErrUnknownBackend), errors.Is(err, ErrUnknownTransport):
		return CodeInvalidArgument, true
	case errors.Is(err, ErrInvalidDataset):
		return CodeInternal, true
	default:
		return "", false
	}
}
