// Package doctor runs read-only integrity checks across the model, the
// local repository, and (when reachable) the forge (spec §4.9).
package doctor

import (
	"context"
	"fmt"

	"github.com/k4r01q/rung/internal/forge"
	"github.com/k4r01q/rung/internal/gitrepo"
	"github.com/k4r01q/rung/internal/model"
	"github.com/k4r01q/rung/internal/render"
	"github.com/k4r01q/rung/internal/store"
)

// Severity classifies a Finding.
type Severity string

// Possible finding severities, in ascending order of concern.
const (
	Info    Severity = "info"
	Warning Severity = "warning"
	Error   Severity = "error"
)

// Finding is one diagnostic emitted by a check.
type Finding struct {
	Severity   Severity
	Message    string
	Suggestion string
}

// Doctor runs checks against a stack, a git driver, a store, and
// optionally a forge (nil skips the forge-reachable checks).
type Doctor struct {
	Git   gitrepo.Git
	Store *store.Store
	Forge forge.Forge
}

// New returns a Doctor. fg may be nil to skip forge-reachable checks.
func New(git gitrepo.Git, st *store.Store, fg forge.Forge) *Doctor {
	return &Doctor{Git: git, Store: st, Forge: fg}
}

// Run executes every check in spec §4.9 order and returns all findings.
func (d *Doctor) Run(ctx context.Context, s *model.Stack) []Finding {
	var findings []Finding

	findings = append(findings, d.checkModelInvariants(ctx, s)...)
	findings = append(findings, d.checkWorkspace(ctx)...)
	findings = append(findings, d.checkSyncState(ctx, s)...)
	if d.Forge != nil {
		findings = append(findings, d.checkForgeCoherence(ctx, s)...)
	}

	return findings
}

// checkModelInvariants re-checks the stack's structure directly against
// the git repository and the in-memory stack: every branch exists
// locally, every parent exists or is trunk, and there are no cycles. PR
// number uniqueness is not checked here. The model
// package itself already rejects cycles on mutation, so a cycle here
// would indicate on-disk corruption bypassing that path.
func (d *Doctor) checkModelInvariants(ctx context.Context, s *model.Stack) []Finding {
	var findings []Finding

	for _, b := range s.Branches() {
		if _, err := d.Git.RevParse(ctx, b.String()); err != nil {
			findings = append(findings, Finding{
				Severity:   Error,
				Message:    fmt.Sprintf("%v has no local branch", b),
				Suggestion: "run `git branch` to confirm it was deleted, then untrack it or recreate it",
			})
		}
	}

	for _, b := range s.Branches() {
		if !s.IsTrunk(b) {
			parent, ok := s.Parent(b)
			if !ok {
				findings = append(findings, Finding{
					Severity:   Error,
					Message:    fmt.Sprintf("branch %v has no recorded parent", b),
					Suggestion: "run `rung move` to re-assign a parent",
				})
				continue
			}
			if !parent.Equal(s.Trunk) && !s.Has(parent) {
				findings = append(findings, Finding{
					Severity:   Error,
					Message:    fmt.Sprintf("branch %v's parent %v is not tracked", b, parent),
					Suggestion: "run `rung move` to re-parent onto a tracked branch or the trunk",
				})
			}
		}
	}

	for _, b := range s.Branches() {
		seen := map[string]bool{b.String(): true}
		cur, ok := s.Parent(b)
		for ok && !cur.Equal(s.Trunk) {
			if seen[cur.String()] {
				findings = append(findings, Finding{
					Severity:   Error,
					Message:    fmt.Sprintf("cycle detected: %v is its own ancestor via %v", b, cur),
					Suggestion: "the on-disk stack.json is corrupt; restore from a backup or re-init",
				})
				break
			}
			seen[cur.String()] = true
			cur, ok = s.Parent(cur)
		}
	}

	return findings
}

// checkWorkspace verifies the repository is in a state safe for rung to
// operate on: clean working tree, no detached HEAD, no rebase in
// progress, no orphaned journal left by a crashed process.
func (d *Doctor) checkWorkspace(ctx context.Context) []Finding {
	var findings []Finding

	if clean, err := d.Git.IsWorkingTreeClean(ctx); err == nil && !clean {
		findings = append(findings, Finding{
			Severity:   Warning,
			Message:    "working tree has uncommitted changes",
			Suggestion: "commit or stash before running sync or merge",
		})
	}

	if detached, err := d.Git.IsDetachedHead(ctx); err == nil && detached {
		findings = append(findings, Finding{
			Severity:   Warning,
			Message:    "HEAD is detached",
			Suggestion: "checkout a tracked branch before continuing",
		})
	}

	if rebasing, err := d.Git.HasRebaseInProgress(ctx); err == nil && rebasing {
		findings = append(findings, Finding{
			Severity:   Error,
			Message:    "a git rebase is in progress outside of rung's journal",
			Suggestion: "resolve it with `git rebase --continue` or `git rebase --abort`",
		})
	}

	_, _, journal, err := d.Store.Load()
	if err == nil && journal != nil {
		if rebasing, rerr := d.Git.HasRebaseInProgress(ctx); rerr == nil && !rebasing {
			findings = append(findings, Finding{
				Severity:   Warning,
				Message:    "an operation journal exists but no rebase is in progress",
				Suggestion: "run `rung sync --continue` or `rung sync --abort` to clear it",
			})
		}
	}

	return findings
}

// checkSyncState warns on any tracked branch that has fallen behind its
// parent's current tip.
func (d *Doctor) checkSyncState(ctx context.Context, s *model.Stack) []Finding {
	var findings []Finding

	for _, b := range s.Branches() {
		parent, _ := s.Parent(b)
		state, err := render.ComputeSyncState(ctx, d.Git, b, parent)
		if err != nil {
			continue
		}
		if !state.InSync {
			findings = append(findings, Finding{
				Severity:   Warning,
				Message:    fmt.Sprintf("%v is behind %v by %d commit(s)", b, parent, state.Behind),
				Suggestion: "run `rung sync`",
			})
		}
	}

	return findings
}

// checkForgeCoherence verifies every PR number on a tracked branch still
// resolves on the forge, and that its state is coherent with the branch
// still being tracked (spec §4.9: warn on closed, error on merged).
func (d *Doctor) checkForgeCoherence(ctx context.Context, s *model.Stack) []Finding {
	var findings []Finding

	for _, b := range s.Branches() {
		node, ok := s.Lookup(b)
		if !ok || node.PR.IsZero() {
			continue
		}

		status, err := d.Forge.FindStatus(ctx, node.PR)
		if err != nil {
			findings = append(findings, Finding{
				Severity:   Warning,
				Message:    fmt.Sprintf("%v (%v) could not be resolved on the forge: %v", b, node.PR, err),
				Suggestion: "check forge connectivity and credentials",
			})
			continue
		}

		switch status.State {
		case forge.PrMerged:
			findings = append(findings, Finding{
				Severity:   Error,
				Message:    fmt.Sprintf("%v (%v) is merged but still tracked", b, node.PR),
				Suggestion: "run `rung merge` to re-parent children and untrack it, or `rung status --fetch` to refresh",
			})
		case forge.PrClosed:
			findings = append(findings, Finding{
				Severity:   Warning,
				Message:    fmt.Sprintf("%v (%v) is closed but still tracked", b, node.PR),
				Suggestion: "untrack it or reopen the pull request",
			})
		}
	}

	return findings
}
