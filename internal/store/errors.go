package store

import "errors"

// Sentinel errors for the state taxonomy (spec §7: State).
var (
	ErrNotInitialized     = errors.New("repository is not initialized for rung")
	ErrAlreadyInitialized = errors.New("repository is already initialized for rung")
	ErrCorruptState       = errors.New("corrupt state")
	ErrUnsupportedVersion = errors.New("unsupported state version")
	ErrBusy               = errors.New("another rung command is running")
	ErrNothingToUndo      = errors.New("nothing to undo")
	ErrNoJournal          = errors.New("no operation in progress")
)
