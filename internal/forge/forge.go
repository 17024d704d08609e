// Package forge defines the capability contract rung needs from the
// configured code-hosting service (a "forge"): creating, updating,
// merging, and commenting on pull requests. rung supports exactly one
// configured forge at a time (spec Non-goal: "supporting merge forges
// other than a single configurable one").
package forge

import (
	"context"
	"errors"

	"github.com/k4r01q/rung/internal/id"
)

// ErrNotAuthenticated indicates that no credentials are available for the
// forge.
var ErrNotAuthenticated = errors.New("not authenticated with forge")

// MergeMethod is the strategy used to merge a pull request.
type MergeMethod string

// Supported merge methods, forwarded to the forge verbatim.
const (
	MergeSquash MergeMethod = "squash"
	MergeMerge  MergeMethod = "merge"
	MergeRebase MergeMethod = "rebase"
)

// PrState is the lifecycle state of a pull request as last observed from
// the forge. It is cached, informational data: never an input to
// correctness.
type PrState string

// Possible states of a pull request.
const (
	PrOpen   PrState = "open"
	PrClosed PrState = "closed"
	PrMerged PrState = "merged"
	PrDraft  PrState = "draft"
)

// Status is a snapshot of a pull request's forge-side state.
type Status struct {
	Number    id.PrNumber
	State     PrState
	URL       string
	BaseName  string
	FetchedAt string // RFC3339
}

// CreateRequest describes a new pull request to open.
type CreateRequest struct {
	Head  id.BranchName
	Base  id.BranchName
	Title string
	Body  string
	Draft bool
}

// CreateResult is the outcome of creating a pull request.
type CreateResult struct {
	Number id.PrNumber
	URL    string
}

// UpdateRequest describes changes to an existing pull request. Zero
// values mean "leave unchanged", except Base which is always applied
// when non-zero.
type UpdateRequest struct {
	Base  id.BranchName
	Title string
}

// MergeResult is the outcome of merging a pull request.
type MergeResult struct {
	// MergeCommit is the commit the forge produced on the base branch
	// as a result of the merge, if applicable to the chosen method.
	MergeCommit string
}

// CommentID identifies a comment left on a pull request by rung.
type CommentID string

// Forge is the capability contract for the configured code-hosting
// service. Every mutating call must be idempotent given the same inputs:
// rung retries transport errors up to 3 times with exponential backoff
// on every mutating call except MergePR, which is not retried.
type Forge interface {
	// CreatePR opens a new pull request. head must already be pushed.
	CreatePR(ctx context.Context, req CreateRequest) (CreateResult, error)

	// UpdatePR updates base and/or title of an existing pull request.
	UpdatePR(ctx context.Context, pr id.PrNumber, req UpdateRequest) error

	// MergePR merges a pull request using the given method and returns
	// the resulting merge commit (or the new trunk tip).
	MergePR(ctx context.Context, pr id.PrNumber, method MergeMethod) (MergeResult, error)

	// FindStatus fetches the current status of a pull request.
	FindStatus(ctx context.Context, pr id.PrNumber) (Status, error)

	// ListComments lists comment IDs and bodies on a pull request.
	ListComments(ctx context.Context, pr id.PrNumber) ([]Comment, error)

	// CreateComment posts a new comment on a pull request.
	CreateComment(ctx context.Context, pr id.PrNumber, body string) (CommentID, error)

	// UpdateComment replaces the body of an existing comment.
	UpdateComment(ctx context.Context, pr id.PrNumber, comment CommentID, body string) error

	// DeleteRemoteBranch deletes a branch from the configured remote.
	DeleteRemoteBranch(ctx context.Context, branch id.BranchName) error
}

// Comment is a single comment on a pull request.
type Comment struct {
	ID   CommentID
	Body string
}
