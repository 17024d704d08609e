package mergeengine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/k4r01q/rung/internal/forge"
	"github.com/k4r01q/rung/internal/gitrepo"
	"github.com/k4r01q/rung/internal/id"
	"github.com/k4r01q/rung/internal/model"
	"github.com/k4r01q/rung/internal/store"
	"github.com/k4r01q/rung/internal/syncengine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bn(t *testing.T, name string) id.BranchName {
	t.Helper()
	b, err := id.NewBranchName(name)
	require.NoError(t, err)
	return b
}

// buildEngine wires a linear main -> A -> B fake repo/stack (B is a
// direct child of A, A's parent is trunk) with open PRs on both
// branches, matching spec §8 scenario 5/6 setup.
func buildEngine(t *testing.T) (*Engine, *gitrepo.Fake, *forge.Fake, *model.Stack) {
	t.Helper()
	ctx := context.Background()

	g := gitrepo.NewFake("main")
	g.AddCommit("main", "C0")
	require.NoError(t, g.CreateBranch(ctx, bn(t, "A"), "main"))
	g.AddCommit("A", "C1")
	require.NoError(t, g.CreateBranch(ctx, bn(t, "B"), "A"))
	g.AddCommit("B", "C2")
	require.NoError(t, g.Checkout(ctx, bn(t, "main")))

	s := model.New(bn(t, "main"))
	require.NoError(t, s.Add(bn(t, "A"), bn(t, "main")))
	require.NoError(t, s.Add(bn(t, "B"), bn(t, "A")))
	require.NoError(t, s.SetLastSyncedParentTip(bn(t, "A"), g.Tip("main")))
	require.NoError(t, s.SetLastSyncedParentTip(bn(t, "B"), g.Tip("A")))

	fg := forge.NewFake()
	aPR, err := fg.CreatePR(ctx, forge.CreateRequest{Head: bn(t, "A"), Base: bn(t, "main"), Title: "A"})
	require.NoError(t, err)
	bPR, err := fg.CreatePR(ctx, forge.CreateRequest{Head: bn(t, "B"), Base: bn(t, "A"), Title: "B"})
	require.NoError(t, err)
	require.NoError(t, s.SetPR(bn(t, "A"), aPR.Number))
	require.NoError(t, s.SetPR(bn(t, "B"), bPR.Number))

	st := store.Open(filepath.Join(t.TempDir(), ".git"), nil)
	require.NoError(t, st.Init("main", "origin"))
	require.NoError(t, st.Save(model.ToStackFile(s)))

	syncEng := syncengine.New(g, st, "origin", nil)
	mergeEng := New(g, fg, syncEng, "origin", nil)
	return mergeEng, g, fg, s
}

func TestEngine_Merge_Bottom_ReparentsChildAndRestacks(t *testing.T) {
	mergeEng, g, fg, s := buildEngine(t)
	ctx := context.Background()

	// Simulate the forge landing a squash-merge commit on trunk's remote
	// copy before the merge runs, so step 4 has something to
	// fast-forward into (spec §8 scenario 5: "local trunk fast-forwarded
	// to M").
	mergeCommit := g.AdvanceRemote("main", "M: squash merge A")

	result, err := mergeEng.Merge(ctx, s, Request{Branch: bn(t, "A"), Method: forge.MergeSquash, DeleteBranch: true})
	require.NoError(t, err)
	assert.Equal(t, []id.BranchName{bn(t, "B")}, result.Reparented)

	assert.Equal(t, mergeCommit, g.Tip("main"))

	assert.False(t, s.Has(bn(t, "A")))
	bNode, ok := s.Lookup(bn(t, "B"))
	require.True(t, ok)
	assert.Equal(t, "main", bNode.Parent.String())

	status, err := fg.FindStatus(ctx, bNode.PR)
	require.NoError(t, err)
	assert.Equal(t, "main", status.BaseName)

	assert.NotContains(t, g.Branches(), "A")

	comments, err := fg.ListComments(ctx, bNode.PR)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Contains(t, comments[0].Body, "you are here")
}

func TestEngine_Merge_DoesNotTouchUnrelatedSiblingStack(t *testing.T) {
	// main -> A -> B (merging A), and a second, unrelated main -> C left
	// deliberately out of sync: the scoped restack must leave C alone
	// (spec §4.6 step 5: "restricted to the subtrees that were children
	// of the merged branch").
	mergeEng, g, _, s := buildEngine(t)
	ctx := context.Background()

	require.NoError(t, g.CreateBranch(ctx, bn(t, "C"), "main"))
	g.AddCommit("C", "C3")
	require.NoError(t, s.Add(bn(t, "C"), bn(t, "main")))

	beforeC := g.Tip("C")
	g.AddCommit("main", "C0'") // main moves further ahead; C is now behind.

	_, err := mergeEng.Merge(ctx, s, Request{Branch: bn(t, "A"), Method: forge.MergeSquash})
	require.NoError(t, err)

	assert.Equal(t, beforeC, g.Tip("C"), "C was never a child of A and must not be rebased")
}

func TestEngine_Merge_NotAtBottom_Rejected(t *testing.T) {
	mergeEng, _, _, s := buildEngine(t)
	ctx := context.Background()

	_, err := mergeEng.Merge(ctx, s, Request{Branch: bn(t, "B"), Method: forge.MergeSquash})
	var notBottom *NotAtStackBottomError
	require.ErrorAs(t, err, &notBottom)
	assert.Equal(t, "B", notBottom.Branch)
	assert.Equal(t, []string{"A"}, notBottom.Ancestors)

	// The stack is untouched: B still has its PR and A as its parent.
	bNode, ok := s.Lookup(bn(t, "B"))
	require.True(t, ok)
	assert.Equal(t, "A", bNode.Parent.String())
}

func TestEngine_Merge_NoOpenPR_Rejected(t *testing.T) {
	mergeEng, _, _, s := buildEngine(t)
	ctx := context.Background()

	require.NoError(t, s.SetPR(bn(t, "A"), id.PrNumber(0)))

	_, err := mergeEng.Merge(ctx, s, Request{Branch: bn(t, "A"), Method: forge.MergeSquash})
	require.ErrorIs(t, err, ErrNoOpenPR)
}

func TestEngine_Merge_DescendantSyncPaused(t *testing.T) {
	mergeEng, g, _, s := buildEngine(t)
	ctx := context.Background()

	g.SetConflict("B", "C2")

	_, err := mergeEng.Merge(ctx, s, Request{Branch: bn(t, "A"), Method: forge.MergeSquash})
	var paused *DescendantSyncPausedError
	require.ErrorAs(t, err, &paused)
	assert.Equal(t, "B", paused.Branch)

	// B was already re-parented before the paused sync, since re-parenting
	// precedes the scoped sync in the merge process.
	bNode, ok := s.Lookup(bn(t, "B"))
	require.True(t, ok)
	assert.Equal(t, "main", bNode.Parent.String())
}
