package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/k4r01q/rung/internal/forge"
	"github.com/k4r01q/rung/internal/mergeengine"
	"github.com/k4r01q/rung/internal/text"
)

// mergeCmd merges the current branch's pull request and restacks its
// children onto the trunk (spec §4.6: "Merge engine").
type mergeCmd struct {
	Method   string `name:"method" short:"m" default:"squash" enum:"squash,merge,rebase" help:"merge strategy to use on the forge"`
	NoDelete bool   `name:"no-delete" help:"keep the remote branch after merging"`
}

func (*mergeCmd) Help() string {
	return text.Dedent(`
		Merges the current branch's pull request, re-parents its direct
		children onto the trunk, fast-forwards the local trunk, and
		syncs the affected subtree. The branch must sit directly atop
		the trunk and have an open pull request.
	`)
}

func (cmd *mergeCmd) Run(ctx context.Context, logger *log.Logger, g *Globals) error {
	w, err := openWorkspace(ctx, logger)
	if err != nil {
		return err
	}
	unlock, err := w.store.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := w.withForge(ctx, g.Token); err != nil {
		return err
	}

	current, err := w.git.CurrentBranch(ctx)
	if err != nil {
		return err
	}

	result, err := w.merge.Merge(ctx, w.stack, mergeengine.Request{
		Branch:       current,
		Method:       forge.MergeMethod(cmd.Method),
		DeleteBranch: !cmd.NoDelete,
	})
	if err != nil {
		if serr := w.save(); serr != nil {
			logger.Warn("save stack after paused merge", "error", serr)
		}
		return err
	}
	if err := w.save(); err != nil {
		return err
	}

	if !g.Quiet {
		fmt.Printf("merged %s", current)
		if result.MergeCommit != "" {
			fmt.Printf(" (%s)", result.MergeCommit)
		}
		fmt.Println()
		for _, c := range result.Reparented {
			fmt.Printf("  %s re-parented onto %s\n", c, w.stack.Trunk)
		}
	}
	return nil
}
