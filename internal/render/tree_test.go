package render

import (
	"context"
	"testing"

	"github.com/k4r01q/rung/internal/gitrepo"
	"github.com/k4r01q/rung/internal/id"
	"github.com/k4r01q/rung/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTree_IndentsByDepth(t *testing.T) {
	trunk := bn(t, "main")
	s := model.New(trunk)
	require.NoError(t, s.Add(bn(t, "a"), trunk))
	require.NoError(t, s.Add(bn(t, "b"), bn(t, "a")))

	out := Tree(s, nil, true)
	assert.Contains(t, out, "main\n")
	assert.Contains(t, out, "└─ a")
	assert.Contains(t, out, "  └─ b")
}

func TestTree_NoColorAppendsCurrentMarker(t *testing.T) {
	trunk := bn(t, "main")
	s := model.New(trunk)
	require.NoError(t, s.Add(bn(t, "a"), trunk))

	statuses := map[string]NodeStatus{
		"a": {Branch: bn(t, "a"), Current: true, Sync: SyncState{InSync: true}},
	}
	out := Tree(s, statuses, true)
	assert.Contains(t, out, "a *")
}

func TestTree_ShowsPRAndBehindCount(t *testing.T) {
	trunk := bn(t, "main")
	s := model.New(trunk)
	require.NoError(t, s.Add(bn(t, "a"), trunk))

	statuses := map[string]NodeStatus{
		"a": {Branch: bn(t, "a"), PR: mustPR(t, 7), Sync: SyncState{Behind: 2}},
	}
	out := Tree(s, statuses, true)
	assert.Contains(t, out, "a (#7) [behind 2]")
}

func mustPR(t *testing.T, n int) id.PrNumber {
	t.Helper()
	p, err := id.NewPrNumber(n)
	require.NoError(t, err)
	return p
}

func TestComputeSyncState_InSyncWhenMergeBaseMatchesParentTip(t *testing.T) {
	g := gitrepo.NewFake("main")
	g.AddCommit("main", "C0")
	require.NoError(t, g.CreateBranch(context.Background(), bn(t, "a"), "main"))
	g.AddCommit("a", "C1")

	st, err := ComputeSyncState(context.Background(), g, bn(t, "a"), bn(t, "main"))
	require.NoError(t, err)
	assert.True(t, st.InSync)
	assert.Zero(t, st.Behind)
}

func TestComputeSyncState_BehindWhenParentAdvanced(t *testing.T) {
	g := gitrepo.NewFake("main")
	g.AddCommit("main", "C0")
	require.NoError(t, g.CreateBranch(context.Background(), bn(t, "a"), "main"))
	g.AddCommit("a", "C1")
	g.AddCommit("main", "C0'")
	g.AddCommit("main", "C0''")

	st, err := ComputeSyncState(context.Background(), g, bn(t, "a"), bn(t, "main"))
	require.NoError(t, err)
	assert.False(t, st.InSync)
	assert.Equal(t, 2, st.Behind)
}
