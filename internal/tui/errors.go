package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNoFields is returned when Fill is given a nil schema.
	ErrNoFields = errors.New("tui: schema has no fields")
)
