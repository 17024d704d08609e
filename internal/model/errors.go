package model

import "errors"

// Sentinel errors for input/validation failures raised by the stack
// model (spec §7: Input/validation).
var (
	ErrInvariantViolation = errors.New("invariant violation")
	ErrMissingBranch      = errors.New("branch is not tracked")
	ErrBranchExists       = errors.New("branch is already tracked")
	ErrHasChildren        = errors.New("branch has children; re-parent them first")
)

// AmbiguousChildError reports that nxt could not pick a single "main
// path" child: more than one child shares the most recent CreatedAt
// (spec §4.4: "nxt fails Ambiguous if multiple children exist unless
// exactly one is on the main path").
type AmbiguousChildError struct {
	Branch   string
	Children []string
}

func (e *AmbiguousChildError) Error() string {
	return "branch " + e.Branch + " has ambiguous children; use `rung move` or checkout one directly"
}
