package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/k4r01q/rung/internal/text"
)

// nxtCmd checks out the current branch's "main path" child (spec §4.4:
// "nxt").
type nxtCmd struct{}

func (*nxtCmd) Help() string {
	return text.Dedent(`
		Checks out the current branch's child. If more than one child
		exists, picks the most recently created; fails if that is
		ambiguous.
	`)
}

func (*nxtCmd) Run(ctx context.Context, logger *log.Logger, g *Globals) error {
	w, err := openWorkspace(ctx, logger)
	if err != nil {
		return err
	}

	current, err := w.git.CurrentBranch(ctx)
	if err != nil {
		return err
	}

	next, err := w.stack.NextChild(current)
	if err != nil {
		return err
	}
	if err := w.git.Checkout(ctx, next); err != nil {
		return err
	}
	if !g.Quiet {
		fmt.Printf("checked out %s\n", next)
	}
	return nil
}
