package doctor

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/k4r01q/rung/internal/forge"
	"github.com/k4r01q/rung/internal/gitrepo"
	"github.com/k4r01q/rung/internal/id"
	"github.com/k4r01q/rung/internal/model"
	"github.com/k4r01q/rung/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bn(t *testing.T, name string) id.BranchName {
	t.Helper()
	b, err := id.NewBranchName(name)
	require.NoError(t, err)
	return b
}

func setup(t *testing.T) (*Doctor, *gitrepo.Fake, *forge.Fake, *model.Stack) {
	t.Helper()
	ctx := context.Background()

	g := gitrepo.NewFake("main")
	g.AddCommit("main", "C0")
	require.NoError(t, g.CreateBranch(ctx, bn(t, "a"), "main"))
	g.AddCommit("a", "C1")
	require.NoError(t, g.Checkout(ctx, bn(t, "a")))

	s := model.New(bn(t, "main"))
	require.NoError(t, s.Add(bn(t, "a"), bn(t, "main")))
	require.NoError(t, s.SetLastSyncedParentTip(bn(t, "a"), g.Tip("main")))

	fg := forge.NewFake()
	st := store.Open(filepath.Join(t.TempDir(), ".git"), nil)
	require.NoError(t, st.Init("main", "origin"))
	require.NoError(t, st.Save(model.ToStackFile(s)))

	return New(g, st, fg), g, fg, s
}

func TestDoctor_CleanStack_NoFindings(t *testing.T) {
	d, _, _, s := setup(t)
	findings := d.Run(context.Background(), s)
	assert.Empty(t, findings)
}

func TestDoctor_BehindParent_Warns(t *testing.T) {
	d, g, _, s := setup(t)
	g.AddCommit("main", "C0'")

	findings := d.Run(context.Background(), s)
	require.NotEmpty(t, findings)
	assert.Equal(t, Warning, findings[0].Severity)
	assert.Contains(t, findings[0].Message, "behind")
}

func TestDoctor_DirtyWorkingTreeAndDetachedHead_Reported(t *testing.T) {
	d, g, _, s := setup(t)
	g.SetWorkingTreeDirty(true)
	g.SetDetachedHead(true)

	findings := d.Run(context.Background(), s)

	var messages []string
	for _, f := range findings {
		messages = append(messages, f.Message)
	}
	assert.Contains(t, messages, "working tree has uncommitted changes")
	assert.Contains(t, messages, "HEAD is detached")
}

func TestDoctor_MissingLocalBranch_Errors(t *testing.T) {
	d, g, _, s := setup(t)
	require.NoError(t, g.DeleteBranch(context.Background(), bn(t, "a"), true))

	findings := d.Run(context.Background(), s)
	var errs []Finding
	for _, f := range findings {
		if f.Severity == Error {
			errs = append(errs, f)
		}
	}
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "has no local branch")
}

func TestDoctor_MergedPRStillTracked_Errors(t *testing.T) {
	d, _, fg, s := setup(t)
	ctx := context.Background()

	created, err := fg.CreatePR(ctx, forge.CreateRequest{Head: bn(t, "a"), Base: bn(t, "main"), Title: "a"})
	require.NoError(t, err)
	require.NoError(t, s.SetPR(bn(t, "a"), created.Number))
	_, err = fg.MergePR(ctx, created.Number, forge.MergeSquash)
	require.NoError(t, err)

	findings := d.Run(ctx, s)
	var errs []Finding
	for _, f := range findings {
		if f.Severity == Error {
			errs = append(errs, f)
		}
	}
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "merged but still tracked")
}

func TestDoctor_ClosedPRStillTracked_Warns(t *testing.T) {
	d, _, fg, s := setup(t)
	ctx := context.Background()

	created, err := fg.CreatePR(ctx, forge.CreateRequest{Head: bn(t, "a"), Base: bn(t, "main"), Title: "a"})
	require.NoError(t, err)
	require.NoError(t, s.SetPR(bn(t, "a"), created.Number))
	fg.SetState(created.Number, forge.PrClosed)

	findings := d.Run(ctx, s)
	var messages []string
	for _, f := range findings {
		messages = append(messages, f.Message)
	}
	assert.Contains(t, messages, "a (#1) is closed but still tracked")
}

func TestDoctor_WithoutForge_SkipsForgeChecks(t *testing.T) {
	_, g, _, s := setup(t)
	ctx := context.Background()

	st := store.Open(filepath.Join(t.TempDir(), ".git"), nil)
	require.NoError(t, st.Init("main", "origin"))
	d := New(g, st, nil)

	findings := d.Run(ctx, s)
	assert.Empty(t, findings)
}
