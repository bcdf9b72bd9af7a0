package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNotAFile is reported for attachment paths pointing at directories.
	ErrNotAFile = errors.New("tui: not a regular file")
	// ErrTooManyAttempts stops a submit loop that keeps failing validation.
	ErrTooManyAttempts = errors.New("tui: form still invalid")

	errRequired = errors.New("required")
)
