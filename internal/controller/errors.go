package controller

import "errors"

var (
	// ErrEmptyName rejects project creation before any network call is made.
	ErrEmptyName = errors.New("project name must not be empty")

	// ErrUnknownProject means the id is not in the cached projection.
	ErrUnknownProject = errors.New("project not found")

	// ErrActionNotAllowed means the action is not in the project's legal
	// action set for its current status. No network call is made.
	ErrActionNotAllowed = errors.New("action not allowed in current project status")

	// ErrAuthRequired means no credential is stored; the caller must send the
	// user back to login before any further backend calls.
	ErrAuthRequired = errors.New("authentication required")
)
