package scorelog

import "errors"

var (
	// ErrValidation is returned when a save is missing its scorer or assist
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when an edit references an entry that is no longer in the log
	ErrNotFound = errors.New("score entry not found")
	// ErrEmptyLog is returned by Submit when there is nothing to send
	ErrEmptyLog = errors.New("no scores have been logged")
	// ErrTransport wraps roster fetch and submission failures
	ErrTransport = errors.New("transport failed")
	// ErrSubmitInProgress is returned while an earlier submission is still waiting on the sink
	ErrSubmitInProgress = errors.New("submission already in progress")
)
