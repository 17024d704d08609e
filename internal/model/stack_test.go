package model

import (
	"testing"

	"github.com/k4r01q/rung/internal/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bn(t *testing.T, s string) id.BranchName {
	t.Helper()
	n, err := id.NewBranchName(s)
	require.NoError(t, err)
	return n
}

// buildStack constructs:
//
//	main ---> feature1 --> {feature2, feature4}
//	      '-> feature3 --> feature5
func buildStack(t *testing.T) *Stack {
	t.Helper()
	trunk := bn(t, "main")
	s := New(trunk)
	require.NoError(t, s.Add(bn(t, "feature1"), trunk))
	require.NoError(t, s.Add(bn(t, "feature3"), trunk))
	require.NoError(t, s.Add(bn(t, "feature2"), bn(t, "feature1")))
	require.NoError(t, s.Add(bn(t, "feature4"), bn(t, "feature1")))
	require.NoError(t, s.Add(bn(t, "feature5"), bn(t, "feature3")))
	return s
}

func names(bs []id.BranchName) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.String()
	}
	return out
}

func TestStack_Children(t *testing.T) {
	s := buildStack(t)

	tests := []struct {
		name string
		want []string
	}{
		{"main", []string{"feature1", "feature3"}},
		{"feature1", []string{"feature2", "feature4"}},
		{"feature2", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(s.Children(bn(t, tt.name))))
		})
	}
}

func TestStack_Descendants(t *testing.T) {
	s := buildStack(t)
	got := names(s.Descendants(bn(t, "main")))
	assert.ElementsMatch(t, []string{"feature1", "feature3", "feature2", "feature4", "feature5"}, got)
}

func TestStack_AncestorsToTrunk(t *testing.T) {
	s := buildStack(t)
	assert.Equal(t, []string{"feature1"}, names(s.AncestorsToTrunk(bn(t, "feature2"))))
	assert.Equal(t, []string{}, names(s.AncestorsToTrunk(bn(t, "feature1"))))
}

func TestStack_TopologicalOrder(t *testing.T) {
	s := buildStack(t)
	order := s.TopologicalOrder()

	index := make(map[string]int, len(order))
	for i, b := range order {
		index[b.String()] = i
	}

	for _, b := range order {
		parent, ok := s.Parent(b)
		require.True(t, ok)
		if s.IsTrunk(parent) {
			continue
		}
		assert.Less(t, index[parent.String()], index[b.String()], "%v must come before %v", parent, b)
	}
}

func TestStack_WouldCreateCycle(t *testing.T) {
	s := buildStack(t)

	assert.True(t, s.WouldCreateCycle(bn(t, "feature1"), bn(t, "feature2")))
	assert.True(t, s.WouldCreateCycle(bn(t, "feature1"), bn(t, "feature1")))
	assert.False(t, s.WouldCreateCycle(bn(t, "feature2"), bn(t, "feature3")))
	assert.False(t, s.WouldCreateCycle(bn(t, "feature1"), s.Trunk))
}

func TestStack_SetParent_RejectsCycle(t *testing.T) {
	s := buildStack(t)
	err := s.SetParent(bn(t, "feature1"), bn(t, "feature2"))
	assert.ErrorIs(t, err, ErrInvariantViolation)

	// The stack must be unchanged after a rejected mutation.
	parent, ok := s.Parent(bn(t, "feature1"))
	require.True(t, ok)
	assert.True(t, parent.Equal(s.Trunk))
}

func TestStack_Remove_RequiresNoChildren(t *testing.T) {
	s := buildStack(t)
	err := s.Remove(bn(t, "feature1"))
	assert.ErrorIs(t, err, ErrHasChildren)

	require.NoError(t, s.Remove(bn(t, "feature2")))
	assert.False(t, s.Has(bn(t, "feature2")))
}

func TestStack_Rename_PropagatesToChildren(t *testing.T) {
	s := buildStack(t)
	require.NoError(t, s.Rename(bn(t, "feature1"), bn(t, "renamed")))

	assert.False(t, s.Has(bn(t, "feature1")))
	require.True(t, s.Has(bn(t, "renamed")))

	for _, child := range []string{"feature2", "feature4"} {
		parent, ok := s.Parent(bn(t, child))
		require.True(t, ok)
		assert.Equal(t, "renamed", parent.String())
	}
}

func TestStack_SetPR_RejectsDuplicate(t *testing.T) {
	s := buildStack(t)
	pr1, err := id.NewPrNumber(1)
	require.NoError(t, err)

	require.NoError(t, s.SetPR(bn(t, "feature1"), pr1))
	err = s.SetPR(bn(t, "feature3"), pr1)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		give string
		want string
	}{
		{"Hello, World!", "hello-world"},
		{"1234 5678", "1234-5678"},
	}
	for _, tt := range tests {
		t.Run(tt.give, func(t *testing.T) {
			got, err := Slugify(tt.give)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("empty", func(t *testing.T) {
		_, err := Slugify("...")
		assert.ErrorAs(t, err, new(*id.InvalidBranchNameError))
	})

	t.Run("idempotent", func(t *testing.T) {
		got, err := Slugify("Hello, World! This message keeps going past the sixty four byte slug limit for sure")
		require.NoError(t, err)
		again, err := Slugify(got)
		require.NoError(t, err)
		assert.Equal(t, got, again)
	})
}
