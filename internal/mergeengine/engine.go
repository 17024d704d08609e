// Package mergeengine implements the merge engine (spec §4.6): merging
// one branch's pull request, re-parenting its children onto the trunk,
// fast-forwarding local trunk, and running a scoped sync over the
// affected subtree.
package mergeengine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/k4r01q/rung/internal/forge"
	"github.com/k4r01q/rung/internal/gitrepo"
	"github.com/k4r01q/rung/internal/id"
	"github.com/k4r01q/rung/internal/model"
	"github.com/k4r01q/rung/internal/render"
	"github.com/k4r01q/rung/internal/syncengine"
)

// Engine runs the merge operation against a stack, git driver, forge
// driver, and sync engine, all supplied by the caller.
type Engine struct {
	Git   gitrepo.Git
	Forge forge.Forge
	Sync  *syncengine.Engine
	Log   *log.Logger

	// Remote is the configured git remote rung pushes to and pulls
	// trunk from (spec §3 Config: forge remote, default "origin").
	Remote string
}

// New returns an Engine. A nil logger discards output.
func New(git gitrepo.Git, fg forge.Forge, sync *syncengine.Engine, remote string, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{Git: git, Forge: fg, Sync: sync, Remote: remote, Log: logger}
}

// Request describes one merge operation.
type Request struct {
	Branch       id.BranchName
	Method       forge.MergeMethod
	DeleteBranch bool
}

// Result summarizes a completed (or paused) merge.
type Result struct {
	MergeCommit string
	Reparented  []id.BranchName
}

// Merge runs the 7-step merge process of spec §4.6 against the branch
// named in req. The branch must be a tracked node whose parent is the
// trunk and which has an open PR.
func (e *Engine) Merge(ctx context.Context, s *model.Stack, req Request) (Result, error) {
	node, ok := s.Lookup(req.Branch)
	if !ok {
		return Result{}, fmt.Errorf("%w: %v", ErrNoOpenPR, req.Branch)
	}
	if !node.Parent.Equal(s.Trunk) {
		ancestors := s.AncestorsToTrunk(req.Branch)
		names := make([]string, len(ancestors))
		for i, a := range ancestors {
			names[i] = a.String()
		}
		return Result{}, &NotAtStackBottomError{Branch: req.Branch.String(), Ancestors: names}
	}
	if node.PR.IsZero() {
		return Result{}, fmt.Errorf("%w: %v", ErrNoOpenPR, req.Branch)
	}

	// Step 1: ensure remote up to date.
	if err := e.Git.Fetch(ctx, e.Remote, s.Trunk.String()); err != nil {
		return Result{}, fmt.Errorf("fetch %v: %w", s.Trunk, err)
	}

	// Step 2: merge the PR.
	mergeResult, err := e.Forge.MergePR(ctx, node.PR, req.Method)
	if err != nil {
		return Result{}, fmt.Errorf("merge pull request %v: %w", node.PR, err)
	}

	// Step 3: re-parent direct children onto the trunk, both locally and
	// through the forge.
	children := s.Children(req.Branch)
	for _, c := range children {
		if err := s.SetParent(c, s.Trunk); err != nil {
			return Result{}, fmt.Errorf("re-parent %v: %w", c, err)
		}
		childNode, _ := s.Lookup(c)
		if !childNode.PR.IsZero() {
			if err := e.Forge.UpdatePR(ctx, childNode.PR, forge.UpdateRequest{Base: s.Trunk}); err != nil {
				return Result{}, fmt.Errorf("update base of %v: %w", childNode.PR, err)
			}
		}
	}

	// Step 4: fetch and fast-forward the local trunk.
	if err := e.Git.PullFFOnly(ctx, e.Remote, s.Trunk); err != nil {
		return Result{}, fmt.Errorf("fast-forward %v: %w", s.Trunk, err)
	}

	// Step 5: sync just the subtrees that were re-parented above, from
	// their old parent's history onto trunk's current tip. Scoped to
	// children (and their descendants) so unrelated branches elsewhere
	// in the stack, and the merged branch itself, are left untouched.
	if len(children) > 0 {
		if err := e.Sync.ExecuteRoots(ctx, s, children); err != nil {
			var paused *syncengine.ConflictPausedError
			if errors.As(err, &paused) {
				return Result{Reparented: children}, &DescendantSyncPausedError{Branch: paused.Branch}
			}
			return Result{}, fmt.Errorf("sync %v: %w", s.Trunk, err)
		}
	}

	// Step 6: remove the merged node, delete branches.
	if err := s.Remove(req.Branch); err != nil {
		return Result{}, fmt.Errorf("remove %v: %w", req.Branch, err)
	}
	if err := e.Git.DeleteBranch(ctx, req.Branch, true); err != nil {
		e.Log.Warn("delete local branch", "branch", req.Branch, "error", err)
	}
	if req.DeleteBranch {
		if err := e.Forge.DeleteRemoteBranch(ctx, req.Branch); err != nil {
			e.Log.Warn("delete remote branch", "branch", req.Branch, "error", err)
		}
	}

	// Step 7: re-render and post stack comments on every PR in the
	// affected subtree.
	if err := e.repostComments(ctx, s, children); err != nil {
		e.Log.Warn("repost stack comments", "error", err)
	}

	return Result{MergeCommit: mergeResult.MergeCommit, Reparented: children}, nil
}

// repostComments re-renders and posts/updates the stack comment for
// every PR in each reparented subtree (spec §4.6 step 7, §4.8).
func (e *Engine) repostComments(ctx context.Context, s *model.Stack, roots []id.BranchName) error {
	var errs []error
	for _, root := range roots {
		branches := append([]id.BranchName{root}, s.Descendants(root)...)
		for _, b := range branches {
			node, ok := s.Lookup(b)
			if !ok || node.PR.IsZero() {
				continue
			}
			body := render.Comment(s, b)
			if err := e.upsertComment(ctx, node.PR, body); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (e *Engine) upsertComment(ctx context.Context, pr id.PrNumber, body string) error {
	comments, err := e.Forge.ListComments(ctx, pr)
	if err != nil {
		return fmt.Errorf("list comments on %v: %w", pr, err)
	}
	for _, c := range comments {
		if hasMarker(c.Body) {
			return e.Forge.UpdateComment(ctx, pr, c.ID, body)
		}
	}
	_, err = e.Forge.CreateComment(ctx, pr, body)
	return err
}

func hasMarker(body string) bool {
	return strings.Contains(body, render.StackCommentMarker)
}
