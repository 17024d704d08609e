package cli

import (
	"context"
	"testing"

	"github.com/k4r01q/rung/internal/gitrepo"
	"github.com/k4r01q/rung/internal/id"
	"github.com/k4r01q/rung/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bn(t *testing.T, name string) id.BranchName {
	t.Helper()
	b, err := id.NewBranchName(name)
	require.NoError(t, err)
	return b
}

// buildMoveFixture constructs main -> a -> b and main -> c, so b can be
// moved from parent a onto parent c.
func buildMoveFixture(t *testing.T) (*gitrepo.Fake, *model.Stack) {
	t.Helper()
	ctx := context.Background()
	g := gitrepo.NewFake("main")

	require.NoError(t, g.CreateBranch(ctx, bn(t, "a"), "main"))
	g.AddCommit("a", "a1")
	require.NoError(t, g.CreateBranch(ctx, bn(t, "b"), "a"))
	g.AddCommit("b", "b1")
	require.NoError(t, g.CreateBranch(ctx, bn(t, "c"), "main"))
	g.AddCommit("c", "c1")
	require.NoError(t, g.Checkout(ctx, bn(t, "b")))

	s := model.New(bn(t, "main"))
	require.NoError(t, s.Add(bn(t, "a"), bn(t, "main")))
	require.NoError(t, s.Add(bn(t, "b"), bn(t, "a")))
	require.NoError(t, s.Add(bn(t, "c"), bn(t, "main")))
	require.NoError(t, s.SetLastSyncedParentTip(bn(t, "a"), g.Tip("main")))
	require.NoError(t, s.SetLastSyncedParentTip(bn(t, "b"), g.Tip("a")))
	require.NoError(t, s.SetLastSyncedParentTip(bn(t, "c"), g.Tip("main")))

	return g, s
}

func TestMoveBranch_ReparentsAndRebasesOnlyItself(t *testing.T) {
	g, s := buildMoveFixture(t)
	ctx := context.Background()

	err := moveBranch(ctx, g, s, bn(t, "b"), bn(t, "c"))
	require.NoError(t, err)

	parent, ok := s.Parent(bn(t, "b"))
	require.True(t, ok)
	assert.Equal(t, "c", parent.String())

	newTip := g.Tip("b")
	assert.Equal(t, "b1", g.Subject(newTip))

	// b's new tip should descend from c's tip, not a's.
	isAncestor, err := g.IsAncestor(ctx, g.Tip("c"), newTip)
	require.NoError(t, err)
	assert.True(t, isAncestor)

	// a is untouched: still just its own commit on top of main.
	assert.Equal(t, "a1", g.Subject(g.Tip("a")))
}

func TestMoveBranch_ConflictReturnsActionableError(t *testing.T) {
	g, s := buildMoveFixture(t)
	ctx := context.Background()
	g.SetConflict("b", "b1")

	err := moveBranch(ctx, g, s, bn(t, "b"), bn(t, "c"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conflict moving")

	// the model was already re-parented before the rebase ran; the
	// caller is expected to resolve the conflict and re-run move.
	parent, _ := s.Parent(bn(t, "b"))
	assert.Equal(t, "c", parent.String())
}
