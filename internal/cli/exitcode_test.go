package cli

import (
	"errors"
	"testing"

	"github.com/k4r01q/rung/internal/mergeengine"
	"github.com/k4r01q/rung/internal/model"
	"github.com/k4r01q/rung/internal/store"
	"github.com/k4r01q/rung/internal/syncengine"
	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"conflict paused", &syncengine.ConflictPausedError{Branch: "b"}, ExitConflictPause},
		{"descendant sync paused", &mergeengine.DescendantSyncPausedError{Branch: "b"}, ExitConflictPause},
		{"busy", store.ErrBusy, ExitBusy},
		{"wrapped busy", errors.New("lock: " + store.ErrBusy.Error()), ExitError}, // not wrapped, falls through
		{"corrupt state", store.ErrCorruptState, ExitCorruptState},
		{"unsupported version", store.ErrUnsupportedVersion, ExitCorruptState},
		{"not initialized", store.ErrNotInitialized, ExitUsage},
		{"ambiguous child", &model.AmbiguousChildError{Branch: "b", Children: []string{"x", "y"}}, ExitUsage},
		{"no children", &model.NoChildrenError{Branch: "b"}, ExitUsage},
		{"not at stack bottom", &mergeengine.NotAtStackBottomError{Branch: "b", Ancestors: []string{"a"}}, ExitUsage},
		{"dirty working tree", syncengine.ErrDirtyWorkingTree, ExitUsage},
		{"generic error", errors.New("boom"), ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
