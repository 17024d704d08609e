// Package github implements [forge.Forge] against the real GitHub REST
// API, using an OAuth2 token sourced from $GITHUB_TOKEN or the OS
// keychain.
package github

import (
	"context"
	"fmt"
	"time"

	gogithub "github.com/google/go-github/v62/github"
	"github.com/k4r01q/rung/internal/forge"
	"github.com/k4r01q/rung/internal/id"
	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"
)

const (
	keyringService = "rung"
	keyringUser    = "github-token"
)

// Forge talks to a single GitHub repository (owner/repo) via the REST
// API.
type Forge struct {
	client *gogithub.Client
	owner  string
	repo   string
}

var _ forge.Forge = (*Forge)(nil)

// New builds a Forge for owner/repo using the given OAuth2 token source.
func New(ctx context.Context, owner, repo string, tok oauth2.TokenSource) *Forge {
	httpClient := oauth2.NewClient(ctx, tok)
	return &Forge{
		client: gogithub.NewClient(httpClient),
		owner:  owner,
		repo:   repo,
	}
}

// TokenSource returns an oauth2.TokenSource backed by $GITHUB_TOKEN if
// set, falling back to a token saved in the OS keychain by [SaveToken].
func TokenSource(envToken string) oauth2.TokenSource {
	if envToken != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: envToken})
	}
	return keyringTokenSource{}
}

type keyringTokenSource struct{}

func (keyringTokenSource) Token() (*oauth2.Token, error) {
	tok, err := keyring.Get(keyringService, keyringUser)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", forge.ErrNotAuthenticated, err)
	}
	return &oauth2.Token{AccessToken: tok}, nil
}

// SaveToken persists an authentication token to the OS keychain.
func SaveToken(tok string) error {
	return keyring.Set(keyringService, keyringUser, tok)
}

// ClearToken removes the saved authentication token from the OS
// keychain.
func ClearToken() error {
	return keyring.Delete(keyringService, keyringUser)
}

// CreatePR opens a new pull request.
func (f *Forge) CreatePR(ctx context.Context, req forge.CreateRequest) (forge.CreateResult, error) {
	var result forge.CreateResult
	err := withRetry(ctx, func() error {
		pr, _, err := f.client.PullRequests.Create(ctx, f.owner, f.repo, &gogithub.NewPullRequest{
			Title: gogithub.String(req.Title),
			Head:  gogithub.String(req.Head.String()),
			Base:  gogithub.String(req.Base.String()),
			Body:  gogithub.String(req.Body),
			Draft: gogithub.Bool(req.Draft),
		})
		if err != nil {
			return fmt.Errorf("create pull request: %w", err)
		}

		num, perr := id.NewPrNumber(pr.GetNumber())
		if perr != nil {
			return fmt.Errorf("create pull request: %w", perr)
		}
		result = forge.CreateResult{Number: num, URL: pr.GetHTMLURL()}
		return nil
	})
	return result, err
}

// UpdatePR updates the base and/or title of an existing pull request.
func (f *Forge) UpdatePR(ctx context.Context, pr id.PrNumber, req forge.UpdateRequest) error {
	update := &gogithub.PullRequest{}
	if req.Base.String() != "" {
		update.Base = &gogithub.PullRequestBranch{Ref: gogithub.String(req.Base.String())}
	}
	if req.Title != "" {
		update.Title = gogithub.String(req.Title)
	}

	return withRetry(ctx, func() error {
		_, _, err := f.client.PullRequests.Edit(ctx, f.owner, f.repo, int(pr), update)
		if err != nil {
			return fmt.Errorf("update pull request %v: %w", pr, err)
		}
		return nil
	})
}

// MergePR merges a pull request with the given method.
func (f *Forge) MergePR(ctx context.Context, pr id.PrNumber, method forge.MergeMethod) (forge.MergeResult, error) {
	var result forge.MergeResult
	// Merging is not idempotent in the sense of "safe to blindly
	// retry": a retried merge of an already-merged PR returns an error
	// from GitHub rather than silently succeeding again, so we do not
	// wrap this call in withRetry (spec §7: "git push --force does
	// not" retry; the same reasoning applies to a non-idempotent merge
	// mutation).
	res, _, err := f.client.PullRequests.Merge(ctx, f.owner, f.repo, int(pr), "", &gogithub.PullRequestOptions{
		MergeMethod: string(method),
	})
	if err != nil {
		return result, fmt.Errorf("merge pull request %v: %w", pr, err)
	}
	result.MergeCommit = res.GetSHA()
	return result, nil
}

// FindStatus fetches the current status of a pull request.
func (f *Forge) FindStatus(ctx context.Context, pr id.PrNumber) (forge.Status, error) {
	var status forge.Status
	err := withRetry(ctx, func() error {
		p, _, err := f.client.PullRequests.Get(ctx, f.owner, f.repo, int(pr))
		if err != nil {
			return fmt.Errorf("get pull request %v: %w", pr, err)
		}

		status = forge.Status{
			Number:    pr,
			State:     prState(p),
			URL:       p.GetHTMLURL(),
			BaseName:  p.GetBase().GetRef(),
			FetchedAt: time.Now().UTC().Format(time.RFC3339),
		}
		return nil
	})
	return status, err
}

func prState(p *gogithub.PullRequest) forge.PrState {
	switch {
	case p.GetMerged():
		return forge.PrMerged
	case p.GetState() == "closed":
		return forge.PrClosed
	case p.GetDraft():
		return forge.PrDraft
	default:
		return forge.PrOpen
	}
}

// ListComments lists the comments on a pull request.
func (f *Forge) ListComments(ctx context.Context, pr id.PrNumber) ([]forge.Comment, error) {
	var comments []forge.Comment
	err := withRetry(ctx, func() error {
		comments = nil
		cs, _, err := f.client.Issues.ListComments(ctx, f.owner, f.repo, int(pr), nil)
		if err != nil {
			return fmt.Errorf("list comments on %v: %w", pr, err)
		}
		for _, c := range cs {
			comments = append(comments, forge.Comment{
				ID:   forge.CommentID(fmt.Sprintf("%d", c.GetID())),
				Body: c.GetBody(),
			})
		}
		return nil
	})
	return comments, err
}

// CreateComment posts a new comment on a pull request.
func (f *Forge) CreateComment(ctx context.Context, pr id.PrNumber, body string) (forge.CommentID, error) {
	var id2 forge.CommentID
	err := withRetry(ctx, func() error {
		c, _, err := f.client.Issues.CreateComment(ctx, f.owner, f.repo, int(pr), &gogithub.IssueComment{
			Body: gogithub.String(body),
		})
		if err != nil {
			return fmt.Errorf("create comment on %v: %w", pr, err)
		}
		id2 = forge.CommentID(fmt.Sprintf("%d", c.GetID()))
		return nil
	})
	return id2, err
}

// UpdateComment replaces the body of an existing comment.
func (f *Forge) UpdateComment(ctx context.Context, pr id.PrNumber, comment forge.CommentID, body string) error {
	var commentID int64
	if _, err := fmt.Sscanf(string(comment), "%d", &commentID); err != nil {
		return fmt.Errorf("parse comment id %v: %w", comment, err)
	}

	return withRetry(ctx, func() error {
		_, _, err := f.client.Issues.EditComment(ctx, f.owner, f.repo, commentID, &gogithub.IssueComment{
			Body: gogithub.String(body),
		})
		if err != nil {
			return fmt.Errorf("update comment %v on %v: %w", comment, pr, err)
		}
		return nil
	})
}

// DeleteRemoteBranch deletes a branch from the remote repository.
func (f *Forge) DeleteRemoteBranch(ctx context.Context, branch id.BranchName) error {
	return withRetry(ctx, func() error {
		_, err := f.client.Git.DeleteRef(ctx, f.owner, f.repo, "heads/"+branch.String())
		if err != nil {
			return fmt.Errorf("delete remote branch %v: %w", branch, err)
		}
		return nil
	})
}
