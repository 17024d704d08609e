package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/k4r01q/rung/internal/id"
	"github.com/k4r01q/rung/internal/model"
	"github.com/k4r01q/rung/internal/text"
)

// createCmd tracks a new branch as a child of the current one (spec
// §4.4: "create").
type createCmd struct {
	Name    string `arg:"" optional:"" help:"name of the new branch; derived from --message if omitted"`
	Message string `name:"message" short:"m" help:"commit message; stages all changes and commits"`
}

func (*createCmd) Help() string {
	return text.Dedent(`
		Creates and checks out a new branch as a child of the current
		one. If --message is given and no name, the branch name is
		slugified from the message; with a message, all changes are
		staged and committed.
	`)
}

func (cmd *createCmd) Run(ctx context.Context, logger *log.Logger, g *Globals) error {
	w, err := openWorkspace(ctx, logger)
	if err != nil {
		return err
	}
	unlock, err := w.store.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if detached, derr := w.git.IsDetachedHead(ctx); derr == nil && detached {
		return errors.New("cannot create a branch from a detached HEAD")
	}

	current, err := w.git.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if !w.stack.IsTrunk(current) && !w.stack.Has(current) {
		return fmt.Errorf("current branch %v is not tracked by rung", current)
	}

	name := cmd.Name
	if name == "" {
		if cmd.Message == "" {
			return errors.New("either a branch name or --message is required")
		}
		name, err = model.Slugify(cmd.Message)
		if err != nil {
			return err
		}
	}
	branch, err := id.NewBranchName(name)
	if err != nil {
		return err
	}

	if err := w.git.CreateBranch(ctx, branch, ""); err != nil {
		return fmt.Errorf("create branch %v: %w", branch, err)
	}
	if err := w.git.Checkout(ctx, branch); err != nil {
		return fmt.Errorf("checkout %v: %w", branch, err)
	}
	if cmd.Message != "" {
		if err := w.git.StageAll(ctx); err != nil {
			return err
		}
		if _, err := w.git.Commit(ctx, cmd.Message); err != nil {
			return err
		}
	}

	if err := w.stack.Add(branch, current); err != nil {
		return err
	}
	w.stack.SetCreatedAt(branch, time.Now().UTC().Format(time.RFC3339))

	if err := w.save(); err != nil {
		return err
	}
	if !g.Quiet {
		fmt.Printf("created %s (parent %s)\n", branch, current)
	}
	return nil
}
