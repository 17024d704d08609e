package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/k4r01q/rung/internal/forge"
	"github.com/k4r01q/rung/internal/id"
	"github.com/k4r01q/rung/internal/render"
	"github.com/k4r01q/rung/internal/text"
)

// submitCmd pushes every tracked branch and opens or updates its pull
// request (spec §4.7: "Submit").
type submitCmd struct {
	DryRun bool   `name:"dry-run" help:"print the plan without pushing or touching the forge"`
	Draft  bool   `name:"draft" help:"open new pull requests as drafts"`
	Force  bool   `name:"force" help:"force-push every branch"`
	Title  string `name:"title" short:"t" help:"override the PR title for the current branch"`
}

func (*submitCmd) Help() string {
	return text.Dedent(`
		Pushes every tracked branch in topological order and, for each,
		opens a pull request (base = its parent, trunk mapped to the
		remote trunk) or updates the existing one. The stack comment on
		every open PR is refreshed to reflect the current tree.
	`)
}

func (cmd *submitCmd) Run(ctx context.Context, logger *log.Logger, g *Globals) error {
	w, err := openWorkspace(ctx, logger)
	if err != nil {
		return err
	}

	order := w.stack.TopologicalOrder()
	if cmd.DryRun {
		for _, b := range order {
			plan, err := cmd.describe(w, b)
			if err != nil {
				return err
			}
			fmt.Println(plan)
		}
		return nil
	}

	unlock, err := w.store.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	fg, err := w.withForge(ctx, g.Token)
	if err != nil {
		return err
	}

	current, _ := w.git.CurrentBranch(ctx)
	for _, b := range order {
		if err := cmd.submitOne(ctx, w, fg, b, b.Equal(current), g); err != nil {
			return fmt.Errorf("submit %v: %w", b, err)
		}
	}
	return w.save()
}

func (cmd *submitCmd) describe(w *workspace, b id.BranchName) (string, error) {
	node, _ := w.stack.Lookup(b)
	if node.PR.IsZero() {
		return fmt.Sprintf("%s: push, then create PR against %s", b, mustParent(w, b)), nil
	}
	return fmt.Sprintf("%s: push, then update PR %s (base %s)", b, node.PR, mustParent(w, b)), nil
}

func mustParent(w *workspace, b id.BranchName) id.BranchName {
	p, _ := w.stack.Parent(b)
	return p
}

func (cmd *submitCmd) submitOne(ctx context.Context, w *workspace, fg forge.Forge, b id.BranchName, isCurrent bool, g *Globals) error {
	if err := w.git.Push(ctx, w.config.Remote, b, cmd.Force); err != nil {
		return err
	}

	node, _ := w.stack.Lookup(b)
	base := mustParent(w, b)
	body := render.Comment(w.stack, b)

	if node.PR.IsZero() {
		title := ""
		if isCurrent {
			title = cmd.Title
		}
		if title == "" {
			title = lastCommitSubject(ctx, w, base, b)
		}
		res, err := fg.CreatePR(ctx, forge.CreateRequest{Head: b, Base: base, Title: title, Body: body, Draft: cmd.Draft})
		if err != nil {
			return err
		}
		if err := w.stack.SetPR(b, res.Number); err != nil {
			return err
		}
		if !g.Quiet {
			fmt.Printf("%s: created %s\n", b, res.URL)
		}
		return upsertComment(ctx, fg, res.Number, body)
	}

	upd := forge.UpdateRequest{Base: base}
	if isCurrent && cmd.Title != "" {
		upd.Title = cmd.Title
	}
	if err := fg.UpdatePR(ctx, node.PR, upd); err != nil {
		return err
	}
	if !g.Quiet {
		fmt.Printf("%s: updated PR %s\n", b, node.PR)
	}
	return upsertComment(ctx, fg, node.PR, body)
}

// upsertComment replaces rung's existing stack comment on pr, or posts a
// new one if none of the existing comments carry the marker (spec §4.8:
// "the marker enables subsequent submit runs to identify and replace only
// rung's comment").
func upsertComment(ctx context.Context, fg forge.Forge, pr id.PrNumber, body string) error {
	comments, err := fg.ListComments(ctx, pr)
	if err != nil {
		return err
	}
	for _, c := range comments {
		if hasMarker(c.Body) {
			return fg.UpdateComment(ctx, pr, c.ID, body)
		}
	}
	_, err = fg.CreateComment(ctx, pr, body)
	return err
}

func hasMarker(body string) bool {
	return strings.Contains(body, render.StackCommentMarker)
}

// lastCommitSubject returns the subject of branch's tip commit, used as
// the default PR title when --title is not given (spec §4.7: "title =
// --title override or last commit subject").
func lastCommitSubject(ctx context.Context, w *workspace, base, branch id.BranchName) string {
	commits, err := w.git.LogRange(ctx, base.String(), branch.String())
	if err != nil || len(commits) == 0 {
		return branch.String()
	}
	return commits[0].Subject
}
