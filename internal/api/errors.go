package api

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed backend call for the caller's retry policy.
type ErrorKind int

const (
	// KindTransient covers network failures and 5xx responses. Safe to retry
	// on the next scheduled refresh.
	KindTransient ErrorKind = iota
	// KindAuth is a 401 (or a missing credential). The stored credential must
	// be discarded and the user sent back to login; never retried silently.
	KindAuth
	// KindValidation is any other 4xx. Surfaced verbatim, never retried.
	KindValidation
)

// Error is the typed failure returned by every Client method.
type Error struct {
	Kind       ErrorKind
	Op         string // e.g. "list_projects"
	StatusCode int    // 0 for transport-level failures
	Detail     string // backend-provided detail message, if any
	Err        error  // underlying cause, if any
}

func (e *Error) Error() string {
	switch {
	case e.Detail != "":
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Detail, e.StatusCode)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: backend returned status %d", e.Op, e.StatusCode)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsAuth reports whether err is an authorization failure requiring re-login.
func IsAuth(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindAuth
}

// IsValidation reports whether err is a user-correctable rejection.
func IsValidation(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindValidation
}

// IsTransient reports whether err may succeed if simply retried later.
func IsTransient(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindTransient
}
