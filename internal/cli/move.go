package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/k4r01q/rung/internal/gitrepo"
	"github.com/k4r01q/rung/internal/id"
	"github.com/k4r01q/rung/internal/model"
	"github.com/k4r01q/rung/internal/syncengine"
	"github.com/k4r01q/rung/internal/text"
)

// moveCmd re-parents the current branch onto another tracked branch or
// the trunk, then restacks just that branch (supplemented feature: spec
// §6 names `move` in the CLI surface without a §4 body; SPEC_FULL.md
// resolves it as model.SetParent plus a single-branch sync, grounded on
// the teacher's "onto" retargeting operation).
type moveCmd struct {
	Onto string `arg:"" help:"branch (or the trunk) to re-parent onto"`
}

func (*moveCmd) Help() string {
	return text.Dedent(`
		Changes the current branch's parent to <onto> and rebases the
		current branch (only) onto its new parent's tip.
	`)
}

func (cmd *moveCmd) Run(ctx context.Context, logger *log.Logger, g *Globals) error {
	w, err := openWorkspace(ctx, logger)
	if err != nil {
		return err
	}
	unlock, err := w.store.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	current, err := w.git.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	newParent, err := resolveBase(w, cmd.Onto)
	if err != nil {
		return err
	}

	if err := moveBranch(ctx, w.git, w.stack, current, newParent); err != nil {
		return err
	}
	if err := w.save(); err != nil {
		return err
	}
	if !g.Quiet {
		fmt.Printf("moved %s onto %s\n", current, newParent)
	}
	return nil
}

// moveBranch re-parents branch onto newParent in s and replays branch's
// own commits onto newParent's current tip. Unlike the sync engine, this
// touches only branch itself: descendants are left for a later `rung
// sync` to pick up, since a single re-parent does not need the full
// journal/backup machinery of a multi-branch operation.
func moveBranch(ctx context.Context, git gitrepo.Git, s *model.Stack, branch, newParent id.BranchName) error {
	if clean, err := git.IsWorkingTreeClean(ctx); err != nil {
		return err
	} else if !clean {
		return syncengine.ErrDirtyWorkingTree
	}

	oldParent, ok := s.Parent(branch)
	if !ok {
		return fmt.Errorf("%w: %v", model.ErrMissingBranch, branch)
	}
	node, _ := s.Lookup(branch)

	upstream := node.LastSyncedParentTip
	if upstream.IsZero() {
		var err error
		upstream, err = git.MergeBase(ctx, branch.String(), oldParent.String())
		if err != nil {
			return fmt.Errorf("merge-base of %v and %v: %w", branch, oldParent, err)
		}
	}

	if err := s.SetParent(branch, newParent); err != nil {
		return err
	}

	ontoTip, err := git.RevParse(ctx, newParent.String())
	if err != nil {
		return fmt.Errorf("resolve tip of %v: %w", newParent, err)
	}

	if err := git.Checkout(ctx, branch); err != nil {
		return fmt.Errorf("checkout %v: %w", branch, err)
	}
	outcome, err := git.RebaseOnto(ctx, gitrepo.RebaseRequest{Branch: branch, Upstream: upstream, Onto: ontoTip})
	if err != nil {
		return fmt.Errorf("rebase %v: %w", branch, err)
	}
	if outcome.Conflicted {
		return fmt.Errorf("rebase paused: conflict moving %v onto %v; resolve and run `git rebase --continue`, then re-run `rung move`", branch, newParent)
	}

	return s.SetLastSyncedParentTip(branch, ontoTip)
}
