// Package syncengine implements the sync engine (spec §4.5): a
// multi-branch rebase orchestrator that walks descendants of a base
// branch in topological order, persists a resumable journal before each
// step, and exposes continue/abort/undo/dry-run as explicit operations
// over that journal (spec §9: "suspendable operation as explicit
// state").
package syncengine

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/k4r01q/rung/internal/gitrepo"
	"github.com/k4r01q/rung/internal/id"
	"github.com/k4r01q/rung/internal/model"
	"github.com/k4r01q/rung/internal/store"
)

// currentOpID names the single backups/<op-id>/ directory in use at any
// time: spec §4.1/§5 guarantee at most one Operation journal exists per
// repository at once, so a fixed id is sufficient (no "nothing else
// could be mid-flight" race to disambiguate against).
const currentOpID = "current"

// Engine runs sync operations against a stack, a git driver, and a
// store, all supplied by the caller (spec §9: "capability injection").
type Engine struct {
	Git   gitrepo.Git
	Store *store.Store
	Log   *log.Logger

	// Remote is the git remote a base is fetched from before planning a
	// sync (spec §3 Config: forge remote, default "origin").
	Remote string
}

// New returns an Engine. A nil logger discards output.
func New(git gitrepo.Git, st *store.Store, remote string, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{Git: git, Store: st, Remote: remote, Log: logger}
}

// Plan is the ordered list of rebase steps a sync would perform.
type Plan struct {
	Base  string
	Steps []PlanStep
}

// PlanStep is one branch's rebase step.
type PlanStep struct {
	Branch   id.BranchName
	Parent   id.BranchName
	OldTip   gitrepo.Commit
	Upstream gitrepo.Commit
}

// ComputePlan computes the rebase plan for every descendant of base, in
// topological order (spec §4.5: "Plan").
func (e *Engine) ComputePlan(ctx context.Context, s *model.Stack, base id.BranchName) (Plan, error) {
	plan, err := e.ComputePlanForRoots(ctx, s, []id.BranchName{base})
	if err != nil {
		return Plan{}, err
	}
	plan.Base = base.String()
	return plan, nil
}

// ComputePlanForRoots computes the rebase plan for the given roots and
// every branch transitively below them, in topological order. A root
// that is the trunk expands to the whole stack, matching ComputePlan's
// trunk-base behavior; any other root expands to itself plus its
// descendants only, which is what scopes a merge's restack to the
// subtrees it actually re-parented (spec §4.6 step 5: "restricted to the
// subtrees that were children of the merged branch").
func (e *Engine) ComputePlanForRoots(ctx context.Context, s *model.Stack, roots []id.BranchName) (Plan, error) {
	inSubtree := make(map[string]bool)
	for _, root := range roots {
		if s.IsTrunk(root) {
			for _, b := range s.TopologicalOrder() {
				inSubtree[b.String()] = true
			}
			continue
		}
		inSubtree[root.String()] = true
		for _, b := range s.Descendants(root) {
			inSubtree[b.String()] = true
		}
	}

	order := s.TopologicalOrder()
	var steps []PlanStep
	for _, b := range order {
		if !inSubtree[b.String()] {
			continue
		}
		parent, _ := s.Parent(b)
		node, _ := s.Lookup(b)

		oldTip, err := e.Git.RevParse(ctx, b.String())
		if err != nil {
			return Plan{}, fmt.Errorf("resolve tip of %v: %w", b, err)
		}

		upstream := node.LastSyncedParentTip
		if upstream.IsZero() {
			upstream, err = e.Git.MergeBase(ctx, b.String(), parent.String())
			if err != nil {
				return Plan{}, fmt.Errorf("merge-base of %v and %v: %w", b, parent, err)
			}
		}

		steps = append(steps, PlanStep{Branch: b, Parent: parent, OldTip: oldTip, Upstream: upstream})
	}

	return Plan{Steps: steps}, nil
}

// checkPreconditions verifies the repository is in a state sync can
// safely start from (spec §4.5: "Preconditions").
func (e *Engine) checkPreconditions(ctx context.Context) error {
	clean, err := e.Git.IsWorkingTreeClean(ctx)
	if err != nil {
		return fmt.Errorf("check working tree: %w", err)
	}
	if !clean {
		return ErrDirtyWorkingTree
	}

	rebasing, err := e.Git.HasRebaseInProgress(ctx)
	if err != nil {
		return fmt.Errorf("check rebase status: %w", err)
	}
	if rebasing {
		return ErrRebaseInProgress
	}

	_, _, journal, err := e.Store.Load()
	if err != nil {
		return err
	}
	if journal != nil {
		return fmt.Errorf("%w: run sync --continue or --abort first", ErrRebaseInProgress)
	}
	return nil
}

func toPlanSteps(steps []PlanStep) []store.PlanStep {
	out := make([]store.PlanStep, len(steps))
	for i, s := range steps {
		out[i] = store.PlanStep{
			Branch:   s.Branch.String(),
			Parent:   s.Parent.String(),
			OldTip:   s.OldTip.String(),
			Upstream: s.Upstream.String(),
		}
	}
	return out
}

// Execute runs a sync plan to completion or until it pauses on a
// conflict (spec §4.5: "Execution").
//
// On a clean run, s is mutated in place (LastSyncedParentTip updated per
// branch) and persisted; the original branch is checked back out and the
// journal is cleared. The backups stay on disk as the single undo slot
// read by [Engine.Undo] until the next sync starts.
//
// On conflict, Execute returns a *[ConflictPausedError] (exit code 3);
// the journal and backups remain on disk for a later Continue or Abort.
func (e *Engine) Execute(ctx context.Context, s *model.Stack, base id.BranchName) error {
	if err := e.checkPreconditions(ctx); err != nil {
		return err
	}
	if err := e.Git.Fetch(ctx, e.Remote, base.String()); err != nil {
		return fmt.Errorf("fetch %v: %w", base, err)
	}

	plan, err := e.ComputePlan(ctx, s, base)
	if err != nil {
		return err
	}
	return e.runPlan(ctx, s, plan)
}

// ExecuteRoots runs a scoped sync over the given roots and their
// descendants only, skipping every other tracked branch (spec §4.6 step
// 5: the merge engine restacks just the subtrees it re-parented, not
// the whole stack). It does not fetch; the caller is expected to have
// already brought the relevant remote refs up to date.
func (e *Engine) ExecuteRoots(ctx context.Context, s *model.Stack, roots []id.BranchName) error {
	if err := e.checkPreconditions(ctx); err != nil {
		return err
	}

	plan, err := e.ComputePlanForRoots(ctx, s, roots)
	if err != nil {
		return err
	}
	names := make([]string, len(roots))
	for i, r := range roots {
		names[i] = r.String()
	}
	plan.Base = strings.Join(names, ",")
	return e.runPlan(ctx, s, plan)
}

// runPlan persists a journal for plan and executes it to completion or
// until a conflict pauses it.
func (e *Engine) runPlan(ctx context.Context, s *model.Stack, plan Plan) error {
	if len(plan.Steps) == 0 {
		return nil
	}

	original, err := e.Git.CurrentBranch(ctx)
	if err != nil {
		return fmt.Errorf("determine current branch: %w", err)
	}

	journal := store.Journal{
		Kind:           store.JournalKindSync,
		StartedAt:      time.Now().UTC().Format(time.RFC3339),
		Base:           plan.Base,
		Plan:           toPlanSteps(plan.Steps),
		Cursor:         0,
		Backups:        map[string]string{},
		OpID:           currentOpID,
		OriginalBranch: original.String(),
	}
	// A new sync replaces the previous sync's undo slot.
	if err := e.Store.ClearJournal(currentOpID); err != nil {
		return fmt.Errorf("clear previous backups: %w", err)
	}
	if err := e.Store.SaveJournal(journal); err != nil {
		return fmt.Errorf("persist journal: %w", err)
	}

	if err := e.runFrom(ctx, s, &journal, 0); err != nil {
		return err
	}

	return e.finish(ctx, original)
}

// Continue resumes a paused sync after the user has resolved a conflict
// and staged the resolution (spec §4.5: "Continue").
func (e *Engine) Continue(ctx context.Context, s *model.Stack) error {
	_, _, journal, err := e.Store.Load()
	if err != nil {
		return err
	}
	if journal == nil {
		return ErrNoJournal
	}
	if journal.Cursor >= len(journal.Plan) {
		return fmt.Errorf("%w: cursor out of range", ErrCorruptJournal)
	}

	current := journal.Plan[journal.Cursor].Branch
	branch, err := e.Git.CurrentBranch(ctx)
	if err == nil && branch.String() != current {
		return fmt.Errorf("%w: expected %v, on %v", ErrWrongStep, current, branch)
	}

	outcome, err := e.Git.RebaseContinue(ctx)
	if err != nil {
		return fmt.Errorf("continue rebase: %w", err)
	}
	if outcome.Conflicted {
		return &ConflictPausedError{Branch: current, ConflictedFiles: outcome.ConflictedFiles}
	}

	if err := e.recordStepComplete(s, journal, outcome.NewTip); err != nil {
		return err
	}

	var original id.BranchName
	if journal.OriginalBranch != "" {
		if b, err := id.NewBranchName(journal.OriginalBranch); err == nil {
			original = b
		}
	}

	if err := e.runFrom(ctx, s, journal, journal.Cursor); err != nil {
		return err
	}
	return e.finish(ctx, original)
}

// ErrCorruptJournal indicates the on-disk journal's cursor does not
// match its plan.
var ErrCorruptJournal = fmt.Errorf("journal cursor out of range")

// runFrom executes plan steps starting at cursor, persisting progress
// after each one, until the plan completes or a conflict pauses it.
func (e *Engine) runFrom(ctx context.Context, s *model.Stack, journal *store.Journal, cursor int) error {
	for cursor < len(journal.Plan) {
		step := journal.Plan[cursor]
		branch, err := id.NewBranchName(step.Branch)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptJournal, err)
		}
		parent, err := id.NewBranchName(step.Parent)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptJournal, err)
		}

		if err := e.Store.SaveBackup(journal.OpID, step.Branch, step.OldTip); err != nil {
			return fmt.Errorf("persist backup for %v: %w", branch, err)
		}
		journal.Backups[step.Branch] = step.OldTip
		if err := e.Store.SaveJournal(*journal); err != nil {
			return fmt.Errorf("persist journal: %w", err)
		}

		if err := e.Git.Checkout(ctx, branch); err != nil {
			return fmt.Errorf("checkout %v: %w", branch, err)
		}

		newBase, err := e.Git.RevParse(ctx, parent.String())
		if err != nil {
			return fmt.Errorf("resolve tip of %v: %w", parent, err)
		}

		outcome, err := e.Git.RebaseOnto(ctx, gitrepo.RebaseRequest{
			Branch:   branch,
			Upstream: gitrepo.Commit(step.Upstream),
			Onto:     newBase,
		})
		if err != nil {
			return fmt.Errorf("rebase %v: %w", branch, err)
		}
		if outcome.Conflicted {
			return &ConflictPausedError{Branch: branch.String(), ConflictedFiles: outcome.ConflictedFiles}
		}

		if err := e.recordStepComplete(s, journal, outcome.NewTip); err != nil {
			return err
		}
		cursor = journal.Cursor
	}
	return nil
}

// recordStepComplete updates the model and journal for the step at the
// journal's current cursor after a clean rebase, then advances the
// cursor.
func (e *Engine) recordStepComplete(s *model.Stack, journal *store.Journal, newTip gitrepo.Commit) error {
	step := journal.Plan[journal.Cursor]
	branch, err := id.NewBranchName(step.Branch)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptJournal, err)
	}
	parentTip, err := e.Git.RevParse(context.Background(), step.Parent)
	if err != nil {
		return fmt.Errorf("resolve tip of %v: %w", step.Parent, err)
	}

	if err := s.SetLastSyncedParentTip(branch, parentTip); err != nil {
		return fmt.Errorf("update %v: %w", branch, err)
	}

	sf := model.ToStackFile(s)
	if err := e.Store.Save(sf); err != nil {
		return fmt.Errorf("persist stack: %w", err)
	}

	journal.Cursor++
	if err := e.Store.SaveJournal(*journal); err != nil {
		return fmt.Errorf("persist journal: %w", err)
	}
	e.Log.Debug("rebased", "branch", branch, "new_tip", newTip.Short())
	return nil
}

// finish restores the original branch and clears the journal on
// successful plan completion, keeping the backups for [Engine.Undo].
func (e *Engine) finish(ctx context.Context, original id.BranchName) error {
	if !original.IsZero() {
		if err := e.Git.Checkout(ctx, original); err != nil {
			return fmt.Errorf("checkout %v: %w", original, err)
		}
	}
	if err := e.Store.ClearJournal(""); err != nil {
		return fmt.Errorf("clear journal: %w", err)
	}
	return nil
}

// Abort cancels an in-progress sync, restoring every touched branch to
// its pre-sync tip and clearing the journal (spec §4.5: "Abort").
func (e *Engine) Abort(ctx context.Context) error {
	_, _, journal, err := e.Store.Load()
	if err != nil {
		return err
	}
	if journal == nil {
		return ErrNoJournal
	}

	if rebasing, err := e.Git.HasRebaseInProgress(ctx); err == nil && rebasing {
		if err := e.Git.RebaseAbort(ctx); err != nil {
			return fmt.Errorf("abort rebase: %w", err)
		}
	}

	if err := e.restoreBackups(ctx, journal.Backups); err != nil {
		return err
	}

	if journal.OriginalBranch != "" {
		if original, err := id.NewBranchName(journal.OriginalBranch); err == nil {
			if err := e.Git.Checkout(ctx, original); err != nil {
				e.Log.Warn("checkout original branch after abort", "error", err)
			}
		}
	}

	return e.Store.ClearJournal(journal.OpID)
}

func (e *Engine) restoreBackups(ctx context.Context, backups map[string]string) error {
	for name, tip := range backups {
		branch, err := id.NewBranchName(name)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptJournal, err)
		}
		if err := e.Git.ResetHard(ctx, branch, gitrepo.Commit(tip)); err != nil {
			return fmt.Errorf("restore %v: %w", branch, err)
		}
	}
	return nil
}

// Undo reverts the most recent successful sync's effects: every touched
// branch is hard-reset to its pre-sync tip and last_synced_parent_tip is
// reverted, then the retained backup set is deleted. Only one undo slot
// exists; a second call fails with [ErrNothingToUndo] (spec §4.5:
// "Undo").
func (e *Engine) Undo(ctx context.Context, s *model.Stack) error {
	backups, err := e.Store.LoadBackups(currentOpID)
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		return ErrNothingToUndo
	}

	if err := e.restoreBackups(ctx, backups); err != nil {
		return err
	}

	for name := range backups {
		branch, err := id.NewBranchName(name)
		if err != nil {
			continue
		}
		if !s.Has(branch) {
			continue
		}
		parent, _ := s.Parent(branch)
		tip, err := e.Git.MergeBase(ctx, branch.String(), parent.String())
		if err == nil {
			_ = s.SetLastSyncedParentTip(branch, tip)
		}
	}
	if err := e.Store.Save(model.ToStackFile(s)); err != nil {
		return fmt.Errorf("persist stack: %w", err)
	}

	return e.Store.ClearJournal(currentOpID)
}

// DryRunStep is a human-readable rendering of one planned rebase, for
// `rung sync --dry-run` (spec §4.5: "Dry run").
type DryRunStep struct {
	Branch  string
	OldTip  string
	NewBase string
}

// DryRun computes the plan and returns what each step intends to do,
// without touching the repository.
func (e *Engine) DryRun(ctx context.Context, s *model.Stack, base id.BranchName) ([]DryRunStep, error) {
	plan, err := e.ComputePlan(ctx, s, base)
	if err != nil {
		return nil, err
	}

	out := make([]DryRunStep, len(plan.Steps))
	for i, step := range plan.Steps {
		newBase, err := e.Git.RevParse(ctx, step.Parent.String())
		if err != nil {
			return nil, fmt.Errorf("resolve tip of %v: %w", step.Parent, err)
		}
		out[i] = DryRunStep{
			Branch:  step.Branch.String(),
			OldTip:  step.OldTip.Short(),
			NewBase: newBase.Short(),
		}
	}
	return out, nil
}
