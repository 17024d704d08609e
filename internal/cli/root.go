package cli

import (
	"github.com/charmbracelet/log"
)

// Root is rung's top-level command, embedding every global flag and
// subcommand (spec §6: "CLI surface" — `init`, `create`, `status`,
// `sync`, `submit`, `merge`, `undo`, `nxt`, `prv`, `move`, `log`,
// `doctor`), following the command-per-struct layout of the teacher's
// own `mainCmd`.
type Root struct {
	Globals

	Init   initCmd   `cmd:"" help:"initialize rung's state for this repository"`
	Create createCmd `cmd:"" help:"track a new branch as a child of the current one"`
	Status statusCmd `cmd:"" help:"print the tracked stack as a tree"`
	Sync   syncCmd   `cmd:"" help:"rebase descendants of a base branch onto their parents"`
	Submit submitCmd `cmd:"" help:"push branches and open or update their pull requests"`
	Merge  mergeCmd  `cmd:"" help:"merge the current branch's pull request"`
	Undo   undoCmd   `cmd:"" help:"revert the most recent sync"`
	Nxt    nxtCmd    `cmd:"" help:"checkout the current branch's child"`
	Prv    prvCmd    `cmd:"" help:"checkout the current branch's parent"`
	Move   moveCmd   `cmd:"" help:"re-parent the current branch"`
	Log    logCmd    `cmd:"" help:"print the current branch's own commits"`
	Doctor doctorCmd `cmd:"" help:"run read-only integrity checks"`
}

// AfterApply quiets the logger when --quiet is set. It does not check
// the --quiet/--json combination.
func (r *Root) AfterApply(logger *log.Logger) error {
	if r.Quiet {
		logger.SetLevel(log.ErrorLevel)
	}
	return nil
}
