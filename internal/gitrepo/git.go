// Package gitrepo defines the capability contract rung needs from a local
// Git repository, plus a real implementation that shells out to the git
// binary.
//
// Engines never invoke a shell directly: they hold a [Git] and call it.
// Arguments that name a branch to check out, create, delete, rename,
// push, pull, rebase or reset are validated [id.BranchName]s. The ref
// arguments of RevParse, MergeBase, LogRange and CountCommits,
// CreateBranch's start point, and remote names and refspecs are plain
// strings, and [Commit] is an unvalidated string type; these are passed
// to git as given.
package gitrepo

import (
	"context"
	"errors"

	"github.com/k4r01q/rung/internal/id"
)

// ErrNotExist indicates that a requested ref, branch, or commit does not
// exist in the repository.
var ErrNotExist = errors.New("does not exist")

// RebaseOutcome is the result of a rebase attempt.
type RebaseOutcome struct {
	// Conflicted is true if the rebase stopped on a conflict (or any
	// other reason that leaves a rebase in progress).
	Conflicted bool

	// NewTip is the new tip of the branch after a clean rebase.
	// Zero when Conflicted is true.
	NewTip Commit

	// ConflictedFiles lists paths with unresolved conflicts.
	// Only populated when Conflicted is true.
	ConflictedFiles []string
}

// RebaseRequest describes a single rebase operation.
type RebaseRequest struct {
	// Branch is the branch being rebased.
	Branch id.BranchName

	// Upstream is the old base commit the branch was built on top of;
	// commits between Upstream and Branch are replayed.
	Upstream Commit

	// Onto is the new base to rebase onto.
	Onto Commit
}

// Git is the capability contract the sync and merge engines use to
// mutate a local repository. A real implementation ([Exec]) shells out to
// git; a [Fake] implementation exists for tests.
type Git interface {
	CurrentBranch(ctx context.Context) (id.BranchName, error)
	IsDetachedHead(ctx context.Context) (bool, error)
	IsWorkingTreeClean(ctx context.Context) (bool, error)
	HasRebaseInProgress(ctx context.Context) (bool, error)

	RevParse(ctx context.Context, ref string) (Commit, error)
	MergeBase(ctx context.Context, a, b string) (Commit, error)
	IsAncestor(ctx context.Context, ancestor, descendant Commit) (bool, error)

	Checkout(ctx context.Context, branch id.BranchName) error
	CreateBranch(ctx context.Context, name id.BranchName, from string) error
	DeleteBranch(ctx context.Context, name id.BranchName, force bool) error
	RenameBranch(ctx context.Context, oldName, newName id.BranchName) error

	Fetch(ctx context.Context, remote, refspec string) error
	Push(ctx context.Context, remote string, branch id.BranchName, force bool) error
	PullFFOnly(ctx context.Context, remote string, branch id.BranchName) error

	RebaseOnto(ctx context.Context, req RebaseRequest) (RebaseOutcome, error)
	RebaseContinue(ctx context.Context) (RebaseOutcome, error)
	RebaseAbort(ctx context.Context) error

	StageAll(ctx context.Context) error
	Commit(ctx context.Context, message string) (Commit, error)

	LogRange(ctx context.Context, from, to string) ([]CommitInfo, error)
	CountCommits(ctx context.Context, from, to string) (int, error)

	ResetHard(ctx context.Context, branch id.BranchName, to Commit) error
}

// CommitInfo is one entry from a commit log.
type CommitInfo struct {
	Hash    Commit
	Subject string
	Author  string
}
