package tasks

import "errors"

var (
	// ErrEmptyName is returned when a task name is blank after trimming.
	ErrEmptyName = errors.New("task name cannot be empty")

	// ErrNotFound is returned when no task has the given id. Callers treat it
	// as a stale reference, not a failure.
	ErrNotFound = errors.New("task not found")
)
