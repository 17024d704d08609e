package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/k4r01q/rung/internal/id"
	"github.com/k4r01q/rung/internal/text"
)

// syncCmd rebases every descendant of a base onto its parent's current
// tip (spec §4.5: "sync engine").
type syncCmd struct {
	Base     string `name:"base" short:"b" help:"branch to sync from; defaults to the trunk"`
	DryRun   bool   `name:"dry-run" help:"print the rebase plan without running it"`
	Continue bool   `name:"continue" help:"resume a sync paused on a conflict"`
	Abort    bool   `name:"abort" help:"cancel an in-progress sync and restore pre-sync tips"`
}

func (*syncCmd) Help() string {
	return text.Dedent(`
		Rebases every tracked descendant of --base (default: the
		trunk) onto its parent's current tip, in topological order. A
		rebase conflict pauses the operation; resume with --continue
		or cancel with --abort.
	`)
}

func (cmd *syncCmd) Run(ctx context.Context, logger *log.Logger, g *Globals) error {
	if countSet(cmd.DryRun, cmd.Continue, cmd.Abort) > 1 {
		return errors.New("--dry-run, --continue, and --abort are mutually exclusive")
	}

	w, err := openWorkspace(ctx, logger)
	if err != nil {
		return err
	}
	unlock, err := w.store.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	switch {
	case cmd.Continue:
		return runSyncResult(w.sync.Continue(ctx, w.stack), g)
	case cmd.Abort:
		if err := w.sync.Abort(ctx); err != nil {
			return err
		}
		if !g.Quiet {
			fmt.Println("sync aborted; branches restored to their pre-sync tips")
		}
		return nil
	}

	base, err := resolveBase(w, cmd.Base)
	if err != nil {
		return err
	}

	if cmd.DryRun {
		steps, err := w.sync.DryRun(ctx, w.stack, base)
		if err != nil {
			return err
		}
		for _, s := range steps {
			fmt.Printf("%s: %s -> %s\n", s.Branch, s.OldTip, s.NewBase)
		}
		return nil
	}

	return runSyncResult(w.sync.Execute(ctx, w.stack, base), g)
}

func runSyncResult(err error, g *Globals) error {
	if err != nil {
		return err
	}
	if !g.Quiet {
		fmt.Println("sync complete")
	}
	return nil
}

func resolveBase(w *workspace, base string) (id.BranchName, error) {
	if base == "" {
		return w.stack.Trunk, nil
	}
	return id.NewBranchName(base)
}

func countSet(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}
