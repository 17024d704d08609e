package syncengine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/k4r01q/rung/internal/gitrepo"
	"github.com/k4r01q/rung/internal/id"
	"github.com/k4r01q/rung/internal/model"
	"github.com/k4r01q/rung/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setup builds a linear stack main -> A -> B, each with one commit, and
// the matching in-memory Fake git repository (spec §8 scenario 1).
func setup(t *testing.T) (*Engine, *gitrepo.Fake, *model.Stack) {
	t.Helper()

	g := gitrepo.NewFake("main")
	g.AddCommit("main", "C0")

	require.NoError(t, g.CreateBranch(context.Background(), mustBranch(t, "A"), "main"))
	g.AddCommit("A", "C1")
	require.NoError(t, g.CreateBranch(context.Background(), mustBranch(t, "B"), "A"))
	g.AddCommit("B", "C2")
	require.NoError(t, g.Checkout(context.Background(), mustBranch(t, "B")))

	s := model.New(mustBranch(t, "main"))
	require.NoError(t, s.Add(mustBranch(t, "A"), mustBranch(t, "main")))
	require.NoError(t, s.Add(mustBranch(t, "B"), mustBranch(t, "A")))
	require.NoError(t, s.SetLastSyncedParentTip(mustBranch(t, "A"), g.Tip("main")))
	require.NoError(t, s.SetLastSyncedParentTip(mustBranch(t, "B"), g.Tip("A")))

	st := store.Open(filepath.Join(t.TempDir(), ".git"), nil)
	require.NoError(t, st.Init("main", "origin"))
	require.NoError(t, st.Save(model.ToStackFile(s)))

	return New(g, st, "origin", nil), g, s
}

func mustBranch(t *testing.T, name string) id.BranchName {
	t.Helper()
	b, err := id.NewBranchName(name)
	require.NoError(t, err)
	return b
}

func TestEngine_Execute_RebasesDescendantsInOrder(t *testing.T) {
	e, g, s := setup(t)
	ctx := context.Background()

	// Advance trunk (spec §8 scenario 2).
	g.AddCommit("main", "C0'")

	require.NoError(t, e.Execute(ctx, s, mustBranch(t, "main")))

	assert.Equal(t, "C0'", g.Subject(g.Tip("main")))

	log, err := g.LogRange(ctx, "main", "A")
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, "C1", log[0].Subject)

	log, err = g.LogRange(ctx, "A", "B")
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, "C2", log[0].Subject)

	_, _, journal, err := e.Store.Load()
	require.NoError(t, err)
	assert.Nil(t, journal)

	current, err := g.CurrentBranch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "B", current.String())
}

func TestEngine_Execute_PausesOnConflict(t *testing.T) {
	e, g, s := setup(t)
	ctx := context.Background()

	g.AddCommit("main", "C0'")
	g.SetConflict("A", "C1")

	err := e.Execute(ctx, s, mustBranch(t, "main"))
	var paused *ConflictPausedError
	require.ErrorAs(t, err, &paused)
	assert.Equal(t, "A", paused.Branch)

	_, _, journal, err := e.Store.Load()
	require.NoError(t, err)
	require.NotNil(t, journal)
	assert.Equal(t, 0, journal.Cursor)
}

func TestEngine_Abort_RestoresPreSyncTips(t *testing.T) {
	e, g, s := setup(t)
	ctx := context.Background()

	g.AddCommit("main", "C0'")
	origATip := g.Tip("A")
	origBTip := g.Tip("B")

	g.SetConflict("A", "C1")
	err := e.Execute(ctx, s, mustBranch(t, "main"))
	require.Error(t, err)

	require.NoError(t, e.Abort(ctx))

	assert.Equal(t, origATip, g.Tip("A"))
	assert.Equal(t, origBTip, g.Tip("B"))

	_, _, journal, err := e.Store.Load()
	require.NoError(t, err)
	assert.Nil(t, journal)
}

func TestEngine_Continue_MatchesUninterruptedSync(t *testing.T) {
	// Spec §8: journal resumability. Run one stack to a conflict, then
	// continue, and compare against a second stack synced uninterrupted.
	e1, g1, s1 := setup(t)
	g1.AddCommit("main", "C0'")
	g1.SetConflict("A", "C1")

	ctx := context.Background()
	err := e1.Execute(ctx, s1, mustBranch(t, "main"))
	var paused *ConflictPausedError
	require.ErrorAs(t, err, &paused)

	g1.ClearConflict("A", "C1")
	require.NoError(t, e1.Continue(ctx, s1))

	e2, g2, s2 := setup(t)
	g2.AddCommit("main", "C0'")
	require.NoError(t, e2.Execute(ctx, s2, mustBranch(t, "main")))

	assert.Equal(t, g2.Tip("A"), g1.Tip("A"))
	assert.Equal(t, g2.Tip("B"), g1.Tip("B"))

	_, _, journal1, err := e1.Store.Load()
	require.NoError(t, err)
	assert.Nil(t, journal1)
}

func TestEngine_ExecuteRoots_ScopesToGivenSubtree(t *testing.T) {
	e, g, s := setup(t)
	ctx := context.Background()

	require.NoError(t, g.CreateBranch(ctx, mustBranch(t, "C"), "main"))
	g.AddCommit("C", "C3")
	require.NoError(t, s.Add(mustBranch(t, "C"), mustBranch(t, "main")))
	beforeC := g.Tip("C")

	g.AddCommit("main", "C0'")

	require.NoError(t, e.ExecuteRoots(ctx, s, []id.BranchName{mustBranch(t, "A")}))

	isAncestor, err := g.IsAncestor(ctx, g.Tip("main"), g.Tip("A"))
	require.NoError(t, err)
	assert.True(t, isAncestor, "A should have been rebased onto main's new tip")
	assert.Equal(t, "C2", g.Subject(g.Tip("B")))
	assert.Equal(t, beforeC, g.Tip("C"), "C is not a descendant of A and must be left alone")
}

func TestEngine_DryRun_DoesNotMutate(t *testing.T) {
	e, g, s := setup(t)
	ctx := context.Background()

	g.AddCommit("main", "C0'")
	beforeA, beforeB := g.Tip("A"), g.Tip("B")

	steps, err := e.DryRun(ctx, s, mustBranch(t, "main"))
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "A", steps[0].Branch)
	assert.Equal(t, "B", steps[1].Branch)

	assert.Equal(t, beforeA, g.Tip("A"))
	assert.Equal(t, beforeB, g.Tip("B"))
}
