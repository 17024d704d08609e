package syncengine

import "errors"

// Sentinel errors for the sync engine (spec §7: Workspace, Operation).
var (
	ErrDirtyWorkingTree = errors.New("working tree is dirty")
	ErrRebaseInProgress = errors.New("a rebase is already in progress")
	ErrNoJournal        = errors.New("no sync operation in progress")
	ErrWrongStep        = errors.New("conflicted branch does not match the journal's current step")
	ErrNothingToUndo    = errors.New("nothing to undo")
)

// ConflictPausedError reports that a sync paused on an unresolved rebase
// conflict (spec §7: Operation/ConflictPaused). It maps to exit code 3
// (spec §6).
type ConflictPausedError struct {
	Branch          string
	ConflictedFiles []string
}

func (e *ConflictPausedError) Error() string {
	return "sync paused: conflict rebasing " + e.Branch
}
