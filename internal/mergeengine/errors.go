package mergeengine

import "errors"

// ErrNoOpenPR indicates the branch being merged has no PR recorded.
var ErrNoOpenPR = errors.New("branch has no open pull request")

// NotAtStackBottomError reports that the branch being merged is not the
// bottom of its stack (its parent is not the trunk): spec §4.6
// "NotAtStackBottom listing the blocking ancestors".
type NotAtStackBottomError struct {
	Branch    string
	Ancestors []string
}

func (e *NotAtStackBottomError) Error() string {
	return "branch " + e.Branch + " is not at the bottom of its stack"
}

// DescendantSyncPausedError reports that the scoped sync following a
// merge paused on a conflict (spec §4.6 step 5).
type DescendantSyncPausedError struct {
	Branch string
}

func (e *DescendantSyncPausedError) Error() string {
	return "descendant sync paused: conflict rebasing " + e.Branch
}
