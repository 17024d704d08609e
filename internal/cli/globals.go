// Package cli wires rung's engines (store, model, gitrepo, forge,
// syncengine, mergeengine, doctor, render) into a [kong]-driven command
// line, following the command-per-struct pattern of the teacher's own
// `main`/`root` (spec §6: "CLI surface").
package cli

import (
	"errors"

	"github.com/k4r01q/rung/internal/id"
	"github.com/k4r01q/rung/internal/mergeengine"
	"github.com/k4r01q/rung/internal/model"
	"github.com/k4r01q/rung/internal/store"
	"github.com/k4r01q/rung/internal/syncengine"
)

// Globals holds flags shared by every command.
type Globals struct {
	Token   string `name:"token" env:"GITHUB_TOKEN" hidden:"" help:"GitHub API token; defaults to $GITHUB_TOKEN or the keychain"`
	NoColor bool   `name:"no-color" env:"NO_COLOR" help:"disable colored output"`
	Quiet   bool   `name:"quiet" short:"q" help:"suppress non-essential output"`
}

// Exit codes per spec §6.
const (
	ExitSuccess       = 0
	ExitError         = 1
	ExitUsage         = 2
	ExitConflictPause = 3
	ExitBusy          = 4
	ExitCorruptState  = 5
)

// ExitCode maps an error returned from a command's Run to the process
// exit code of spec §6. nil maps to 0.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var conflict *syncengine.ConflictPausedError
	if errors.As(err, &conflict) {
		return ExitConflictPause
	}
	var descendantPaused *mergeengine.DescendantSyncPausedError
	if errors.As(err, &descendantPaused) {
		return ExitConflictPause
	}

	if errors.Is(err, store.ErrBusy) {
		return ExitBusy
	}
	if errors.Is(err, store.ErrCorruptState) || errors.Is(err, store.ErrUnsupportedVersion) {
		return ExitCorruptState
	}

	var invalidBranch *id.InvalidBranchNameError
	var ambiguous *model.AmbiguousChildError
	var noChildren *model.NoChildrenError
	var notAtBottom *mergeengine.NotAtStackBottomError
	switch {
	case errors.As(err, &invalidBranch),
		errors.As(err, &ambiguous),
		errors.As(err, &noChildren),
		errors.As(err, &notAtBottom),
		errors.Is(err, model.ErrInvariantViolation),
		errors.Is(err, model.ErrMissingBranch),
		errors.Is(err, model.ErrBranchExists),
		errors.Is(err, model.ErrHasChildren),
		errors.Is(err, model.ErrEmptySlug),
		errors.Is(err, store.ErrNotInitialized),
		errors.Is(err, store.ErrAlreadyInitialized),
		errors.Is(err, store.ErrNothingToUndo),
		errors.Is(err, store.ErrNoJournal),
		errors.Is(err, syncengine.ErrDirtyWorkingTree),
		errors.Is(err, syncengine.ErrRebaseInProgress),
		errors.Is(err, syncengine.ErrNoJournal),
		errors.Is(err, syncengine.ErrWrongStep),
		errors.Is(err, mergeengine.ErrNoOpenPR):
		return ExitUsage
	}

	return ExitError
}
