package forge

import (
	"context"
	"fmt"

	"github.com/k4r01q/rung/internal/id"
)

// Fake is an in-memory [Forge] simulator used by engine tests.
type Fake struct {
	prs      map[id.PrNumber]*fakePR
	comments map[id.PrNumber][]Comment
	nextPR   int
	nextC    int

	// MergeResult, if set, is returned by MergePR instead of a
	// generated commit hash, and so becomes the merge commit the merge
	// engine reports.
	MergeResult string
}

type fakePR struct {
	state PrState
	url   string
	base  id.BranchName
	title string
}

// NewFake creates an empty forge with no pull requests.
func NewFake() *Fake {
	return &Fake{
		prs:      make(map[id.PrNumber]*fakePR),
		comments: make(map[id.PrNumber][]Comment),
	}
}

func (f *Fake) CreatePR(_ context.Context, req CreateRequest) (CreateResult, error) {
	f.nextPR++
	num, err := id.NewPrNumber(f.nextPR)
	if err != nil {
		return CreateResult{}, err
	}

	state := PrOpen
	if req.Draft {
		state = PrDraft
	}
	f.prs[num] = &fakePR{
		state: state,
		url:   fmt.Sprintf("https://example.test/pr/%d", f.nextPR),
		base:  req.Base,
		title: req.Title,
	}
	return CreateResult{Number: num, URL: f.prs[num].url}, nil
}

func (f *Fake) UpdatePR(_ context.Context, pr id.PrNumber, req UpdateRequest) error {
	p, ok := f.prs[pr]
	if !ok {
		return fmt.Errorf("pull request %v not found", pr)
	}
	if req.Base.String() != "" {
		p.base = req.Base
	}
	if req.Title != "" {
		p.title = req.Title
	}
	return nil
}

func (f *Fake) MergePR(_ context.Context, pr id.PrNumber, _ MergeMethod) (MergeResult, error) {
	p, ok := f.prs[pr]
	if !ok {
		return MergeResult{}, fmt.Errorf("pull request %v not found", pr)
	}
	if p.state == PrMerged {
		return MergeResult{}, fmt.Errorf("pull request %v already merged", pr)
	}
	p.state = PrMerged

	commit := f.MergeResult
	if commit == "" {
		commit = fmt.Sprintf("merge-%d", pr)
	}
	return MergeResult{MergeCommit: commit}, nil
}

func (f *Fake) FindStatus(_ context.Context, pr id.PrNumber) (Status, error) {
	p, ok := f.prs[pr]
	if !ok {
		return Status{}, fmt.Errorf("pull request %v not found", pr)
	}
	return Status{
		Number:   pr,
		State:    p.state,
		URL:      p.url,
		BaseName: p.base.String(),
	}, nil
}

func (f *Fake) ListComments(_ context.Context, pr id.PrNumber) ([]Comment, error) {
	return append([]Comment(nil), f.comments[pr]...), nil
}

func (f *Fake) CreateComment(_ context.Context, pr id.PrNumber, body string) (CommentID, error) {
	f.nextC++
	c := Comment{ID: CommentID(fmt.Sprintf("c%d", f.nextC)), Body: body}
	f.comments[pr] = append(f.comments[pr], c)
	return c.ID, nil
}

func (f *Fake) UpdateComment(_ context.Context, pr id.PrNumber, comment CommentID, body string) error {
	for i, c := range f.comments[pr] {
		if c.ID == comment {
			f.comments[pr][i].Body = body
			return nil
		}
	}
	return fmt.Errorf("comment %v not found on pull request %v", comment, pr)
}

func (f *Fake) DeleteRemoteBranch(context.Context, id.BranchName) error { return nil }

// SetState overrides the recorded state of an existing pull request, for
// test setup (e.g. simulating a PR closed without merging out-of-band).
func (f *Fake) SetState(pr id.PrNumber, state PrState) {
	if p, ok := f.prs[pr]; ok {
		p.state = state
	}
}

var _ Forge = (*Fake)(nil)
