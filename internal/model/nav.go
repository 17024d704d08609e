package model

import "github.com/k4r01q/rung/internal/id"

// NextChild picks the child of name that sits on the "main path": the
// most recently created one. Fails with [AmbiguousChildError] if more
// than one child shares the latest CreatedAt (spec §4.4: "nxt").
func (s *Stack) NextChild(name id.BranchName) (id.BranchName, error) {
	children := s.Children(name)
	if len(children) == 0 {
		return id.BranchName{}, &NoChildrenError{Branch: name.String()}
	}

	var (
		best     id.BranchName
		bestTime string
		tied     []string
	)
	for _, c := range children {
		n := s.nodes[c.String()]
		switch {
		case best.IsZero() || n.CreatedAt > bestTime:
			best, bestTime = c, n.CreatedAt
			tied = []string{c.String()}
		case n.CreatedAt == bestTime:
			tied = append(tied, c.String())
		}
	}
	if len(tied) > 1 {
		return id.BranchName{}, &AmbiguousChildError{Branch: name.String(), Children: tied}
	}
	return best, nil
}

// NoChildrenError reports that a branch has no children to walk to.
type NoChildrenError struct{ Branch string }

func (e *NoChildrenError) Error() string { return "branch " + e.Branch + " has no children" }
