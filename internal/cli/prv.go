package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/k4r01q/rung/internal/text"
)

// prvCmd checks out the current branch's parent (spec §4.4: "prv").
type prvCmd struct{}

func (*prvCmd) Help() string {
	return text.Dedent(`
		Checks out the current branch's parent. From a stack root,
		this returns to the trunk.
	`)
}

func (*prvCmd) Run(ctx context.Context, logger *log.Logger, g *Globals) error {
	w, err := openWorkspace(ctx, logger)
	if err != nil {
		return err
	}

	current, err := w.git.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if !w.stack.Has(current) {
		return fmt.Errorf("current branch %v is not tracked by rung", current)
	}

	parent, _ := w.stack.Parent(current)
	if err := w.git.Checkout(ctx, parent); err != nil {
		return err
	}
	if !g.Quiet {
		fmt.Printf("checked out %s\n", parent)
	}
	return nil
}
