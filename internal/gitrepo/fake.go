package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/k4r01q/rung/internal/id"
)

// Fake is an in-memory [Git] simulator used by engine tests. It models
// just enough of Git's behavior — branches as pointers into a commit
// DAG, and rebase as "replay these commits on a new parent" — for the
// sync and merge engines to be tested without a real repository.
type Fake struct {
	commits  map[Commit]fakeCommit
	branches map[string]Commit
	// remoteBranches holds each branch's last-known tip on the "remote",
	// tracked separately from branches so Push/Fetch/PullFFOnly can be
	// exercised meaningfully in tests. Falls back to branches for any
	// name not yet pushed or advanced.
	remoteBranches map[string]Commit
	current        string
	seq            int

	dirty        bool
	detachedHead bool

	// ConflictAt, if set, names a (branch, commit-being-replayed) pair
	// that should pause the next rebase with a conflict instead of
	// completing it. Tests clear the pairing after simulating a
	// resolution, then call RebaseContinue.
	ConflictAt map[conflictKey]bool

	pending *fakeRebase
}

type conflictKey struct {
	branch  string
	subject string
}

type fakeCommit struct {
	parent  Commit
	subject string
}

// fakeRebase tracks a paused in-progress rebase: the commits still to be
// replayed, and where they're being replayed onto.
type fakeRebase struct {
	branch   id.BranchName
	onto     Commit
	pending  []string // subjects still to replay, oldest first
	newTip   Commit
}

var _ Git = (*Fake)(nil)

// NewFake creates an empty repository with a single trunk branch at an
// initial commit.
func NewFake(trunk string) *Fake {
	f := &Fake{
		commits:  make(map[Commit]fakeCommit),
		branches: make(map[string]Commit),
		current:  trunk,
	}
	root := f.nextHash()
	f.commits[root] = fakeCommit{subject: "root"}
	f.branches[trunk] = root
	return f
}

func (f *Fake) nextHash() Commit {
	f.seq++
	return Commit(fmt.Sprintf("c%02d", f.seq))
}

// Tip returns the current tip commit of a branch, for test assertions.
func (f *Fake) Tip(branch string) Commit { return f.branches[branch] }

// Commit creates a new commit on top of branch's current tip with the
// given subject, moving the branch pointer forward, for test setup.
func (f *Fake) AddCommit(branch, subject string) Commit {
	parent := f.branches[branch]
	h := f.nextHash()
	f.commits[h] = fakeCommit{parent: parent, subject: subject}
	f.branches[branch] = h
	return h
}

// Subject returns the commit message recorded for h, for test assertions.
func (f *Fake) Subject(h Commit) string { return f.commits[h].subject }

// SetConflict arranges for the next replay of a commit with the given
// subject onto branch to pause with a conflict instead of completing,
// for test setup.
func (f *Fake) SetConflict(branch, subject string) {
	if f.ConflictAt == nil {
		f.ConflictAt = make(map[conflictKey]bool)
	}
	f.ConflictAt[conflictKey{branch: branch, subject: subject}] = true
}

// ClearConflict removes a previously set conflict, simulating the user
// resolving it and staging the result.
func (f *Fake) ClearConflict(branch, subject string) {
	delete(f.ConflictAt, conflictKey{branch: branch, subject: subject})
}

func (f *Fake) CurrentBranch(context.Context) (id.BranchName, error) {
	return id.NewBranchName(f.current)
}

func (f *Fake) IsDetachedHead(context.Context) (bool, error) { return f.detachedHead, nil }

func (f *Fake) IsWorkingTreeClean(context.Context) (bool, error) { return !f.dirty, nil }

// SetWorkingTreeDirty simulates uncommitted changes in the working
// tree, for test setup.
func (f *Fake) SetWorkingTreeDirty(dirty bool) { f.dirty = dirty }

// SetDetachedHead simulates HEAD pointing at a commit rather than a
// branch, for test setup.
func (f *Fake) SetDetachedHead(detached bool) { f.detachedHead = detached }

func (f *Fake) HasRebaseInProgress(context.Context) (bool, error) {
	return f.pending != nil, nil
}

func (f *Fake) RevParse(_ context.Context, ref string) (Commit, error) {
	if h, ok := f.branches[ref]; ok {
		return h, nil
	}
	if _, ok := f.commits[Commit(ref)]; ok {
		return Commit(ref), nil
	}
	return "", ErrNotExist
}

func (f *Fake) MergeBase(_ context.Context, a, b string) (Commit, error) {
	ah, err := f.resolve(a)
	if err != nil {
		return "", err
	}
	bh, err := f.resolve(b)
	if err != nil {
		return "", err
	}

	ancestorsOf := func(start Commit) map[Commit]bool {
		seen := make(map[Commit]bool)
		for cur := start; cur != ""; {
			seen[cur] = true
			cur = f.commits[cur].parent
		}
		return seen
	}

	aSet := ancestorsOf(ah)
	for cur := bh; cur != ""; cur = f.commits[cur].parent {
		if aSet[cur] {
			return cur, nil
		}
	}
	return "", fmt.Errorf("no common ancestor of %v and %v", a, b)
}

func (f *Fake) resolve(ref string) (Commit, error) {
	if h, ok := f.branches[ref]; ok {
		return h, nil
	}
	if _, ok := f.commits[Commit(ref)]; ok {
		return Commit(ref), nil
	}
	return "", fmt.Errorf("resolve %v: %w", ref, ErrNotExist)
}

func (f *Fake) IsAncestor(_ context.Context, ancestor, descendant Commit) (bool, error) {
	for cur := descendant; cur != ""; cur = f.commits[cur].parent {
		if cur == ancestor {
			return true, nil
		}
	}
	return ancestor == "", nil
}

func (f *Fake) Checkout(_ context.Context, branch id.BranchName) error {
	if _, ok := f.branches[branch.String()]; !ok {
		return ErrNotExist
	}
	f.current = branch.String()
	return nil
}

func (f *Fake) CreateBranch(_ context.Context, name id.BranchName, from string) error {
	if _, ok := f.branches[name.String()]; ok {
		return fmt.Errorf("branch %v already exists", name)
	}
	h, err := f.resolve(from)
	if err != nil {
		h = f.branches[f.current]
	}
	f.branches[name.String()] = h
	return nil
}

func (f *Fake) DeleteBranch(_ context.Context, name id.BranchName, _ bool) error {
	delete(f.branches, name.String())
	return nil
}

func (f *Fake) RenameBranch(_ context.Context, oldName, newName id.BranchName) error {
	h, ok := f.branches[oldName.String()]
	if !ok {
		return ErrNotExist
	}
	delete(f.branches, oldName.String())
	f.branches[newName.String()] = h
	if f.current == oldName.String() {
		f.current = newName.String()
	}
	return nil
}

// Fetch is a no-op: the fake models the remote as a separate set of
// branch tips (see remoteBranches) rather than a separate object store,
// so there is nothing to download ahead of a PullFFOnly.
func (f *Fake) Fetch(context.Context, string, string) error { return nil }

// Push records branch's current local tip as its remote tip, for test
// assertions that later calls observe the pushed state.
func (f *Fake) Push(_ context.Context, _ string, branch id.BranchName, _ bool) error {
	if f.remoteBranches == nil {
		f.remoteBranches = make(map[string]Commit)
	}
	f.remoteBranches[branch.String()] = f.branches[branch.String()]
	return nil
}

// AdvanceRemote simulates a commit landing on a branch's remote copy
// without yet being reflected in the local ref — e.g. the merge commit
// a forge creates when a pull request merges — for test setup.
func (f *Fake) AdvanceRemote(branch, subject string) Commit {
	if f.remoteBranches == nil {
		f.remoteBranches = make(map[string]Commit)
	}
	parent := f.remoteTip(branch)
	h := f.nextHash()
	f.commits[h] = fakeCommit{parent: parent, subject: subject}
	f.remoteBranches[branch] = h
	return h
}

func (f *Fake) remoteTip(branch string) Commit {
	if h, ok := f.remoteBranches[branch]; ok {
		return h
	}
	return f.branches[branch]
}

// PullFFOnly fast-forwards branch's local tip to its remote tip,
// independent of whichever branch is currently checked out, refusing a
// non-fast-forward update.
func (f *Fake) PullFFOnly(ctx context.Context, _ string, branch id.BranchName) error {
	localTip, ok := f.branches[branch.String()]
	if !ok {
		return ErrNotExist
	}
	remoteTip := f.remoteTip(branch.String())
	if localTip == remoteTip {
		return nil
	}
	isAncestor, err := f.IsAncestor(ctx, localTip, remoteTip)
	if err != nil {
		return err
	}
	if !isAncestor {
		return fmt.Errorf("%v: not a fast-forward", branch)
	}
	f.branches[branch.String()] = remoteTip
	return nil
}

// RebaseOnto replays commits strictly after upstream on branch's current
// history, onto the new base. If a replayed commit's subject is marked
// conflicting for this branch via ConflictAt, the rebase pauses there.
func (f *Fake) RebaseOnto(_ context.Context, req RebaseRequest) (RebaseOutcome, error) {
	if f.pending != nil {
		return RebaseOutcome{}, errors.New("a rebase is already in progress")
	}

	tip, ok := f.branches[req.Branch.String()]
	if !ok {
		return RebaseOutcome{}, ErrNotExist
	}

	var subjects []string
	for cur := tip; cur != req.Upstream && cur != ""; cur = f.commits[cur].parent {
		subjects = append(subjects, f.commits[cur].subject)
	}
	// subjects is tip-to-upstream; reverse to oldest-first for replay.
	for i, j := 0, len(subjects)-1; i < j; i, j = i+1, j-1 {
		subjects[i], subjects[j] = subjects[j], subjects[i]
	}

	rb := &fakeRebase{branch: req.Branch, onto: req.Onto, newTip: req.Onto, pending: subjects}
	f.pending = rb
	return f.advanceRebase()
}

func (f *Fake) RebaseContinue(context.Context) (RebaseOutcome, error) {
	if f.pending == nil {
		return RebaseOutcome{}, errors.New("no rebase in progress")
	}
	return f.advanceRebase()
}

func (f *Fake) advanceRebase() (RebaseOutcome, error) {
	rb := f.pending
	for len(rb.pending) > 0 {
		subject := rb.pending[0]
		if f.ConflictAt[conflictKey{branch: rb.branch.String(), subject: subject}] {
			return RebaseOutcome{Conflicted: true, ConflictedFiles: []string{subject + ".txt"}}, nil
		}

		h := f.nextHash()
		f.commits[h] = fakeCommit{parent: rb.newTip, subject: subject}
		rb.newTip = h
		rb.pending = rb.pending[1:]
	}

	f.branches[rb.branch.String()] = rb.newTip
	f.pending = nil
	return RebaseOutcome{NewTip: rb.newTip}, nil
}

func (f *Fake) RebaseAbort(context.Context) error {
	if f.pending == nil {
		return errors.New("no rebase in progress")
	}
	f.pending = nil
	return nil
}

func (f *Fake) StageAll(context.Context) error { return nil }

func (f *Fake) Commit(_ context.Context, message string) (Commit, error) {
	return f.AddCommit(f.current, message), nil
}

func (f *Fake) LogRange(_ context.Context, from, to string) ([]CommitInfo, error) {
	toHash, err := f.resolve(to)
	if err != nil {
		return nil, err
	}
	fromHash, err := f.resolve(from)
	if err != nil {
		return nil, err
	}

	var out []CommitInfo
	for cur := toHash; cur != fromHash && cur != ""; cur = f.commits[cur].parent {
		out = append(out, CommitInfo{Hash: cur, Subject: f.commits[cur].subject})
	}
	return out, nil
}

func (f *Fake) CountCommits(ctx context.Context, from, to string) (int, error) {
	commits, err := f.LogRange(ctx, from, to)
	if err != nil {
		return 0, err
	}
	return len(commits), nil
}

func (f *Fake) ResetHard(_ context.Context, branch id.BranchName, to Commit) error {
	if _, ok := f.commits[to]; !ok && to != "" {
		return ErrNotExist
	}
	f.branches[branch.String()] = to
	return nil
}

// Branches returns the sorted list of branch names, for test assertions.
func (f *Fake) Branches() []string {
	names := make([]string, 0, len(f.branches))
	for name := range f.branches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
