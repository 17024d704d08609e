package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/k4r01q/rung/internal/text"
)

// logCmd prints the current tracked branch's own commits (supplemented
// feature: spec §6 lists `log` without a §4 body; SPEC_FULL.md resolves
// it per spec §9's open question as `git log parent..HEAD`).
type logCmd struct{}

func (*logCmd) Help() string {
	return text.Dedent(`
		Prints the commits on the current branch that are not on its
		tracked parent, newest first.
	`)
}

func (*logCmd) Run(ctx context.Context, logger *log.Logger, g *Globals) error {
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

	commits, err := w.git.LogRange(ctx, parent.String(), "HEAD")
	if err != nil {
		return err
	}
	for _, c := range commits {
		fmt.Printf("%s %s\n", c.Hash.Short(), c.Subject)
	}
	return nil
}
