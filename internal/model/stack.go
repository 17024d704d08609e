// Package model holds the in-memory view of a rung stack: a forest of
// tracked branches rooted at the trunk. It is hydrated from [store.Load]
// and mutated only through the methods here, each of which revalidates
// invariants 1-4 before committing (spec §4.2).
//
// The forest is stored as a flat map keyed by branch name, with each
// node's parent stored by name rather than by pointer: this avoids
// cyclic ownership and makes the structure serialize directly to JSON
// (spec §9: "Forest over pointers").
package model

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/k4r01q/rung/internal/gitrepo"
	"github.com/k4r01q/rung/internal/id"
	"go.abhg.dev/container/ring"
)

// Node is one tracked branch.
type Node struct {
	Name                id.BranchName
	Parent              id.BranchName // trunk sentinel if rooted at trunk
	PR                  id.PrNumber   // zero if none
	LastSyncedParentTip gitrepo.Commit
	CreatedAt           string // RFC3339
}

// Stack is the in-memory forest of tracked branches rooted at Trunk.
type Stack struct {
	Trunk id.BranchName
	nodes map[string]*Node

	// extra carries stack.json's unrecognized top-level fields across
	// the load-mutate-save round trip, so they ride along even though
	// nothing here reads them (see [store.StackFile.Extra]).
	extra map[string]json.RawMessage
}

// New returns an empty stack rooted at trunk.
func New(trunk id.BranchName) *Stack {
	return &Stack{Trunk: trunk, nodes: make(map[string]*Node)}
}

// Lookup returns the node for name, or false if it is not tracked (trunk
// included: trunk is never a node).
func (s *Stack) Lookup(name id.BranchName) (Node, bool) {
	n, ok := s.nodes[name.String()]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Has reports whether name is a tracked branch.
func (s *Stack) Has(name id.BranchName) bool {
	_, ok := s.nodes[name.String()]
	return ok
}

// IsTrunk reports whether name refers to the trunk branch.
func (s *Stack) IsTrunk(name id.BranchName) bool {
	return name.Equal(s.Trunk)
}

// Branches returns all tracked branch names, sorted ascending, for
// deterministic iteration (spec §4.2).
func (s *Stack) Branches() []id.BranchName {
	names := make([]id.BranchName, 0, len(s.nodes))
	for _, n := range s.nodes {
		names = append(names, n.Name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].String() < names[j].String() })
	return names
}

// Parent returns the parent of name: another tracked branch, or Trunk.
func (s *Stack) Parent(name id.BranchName) (id.BranchName, bool) {
	n, ok := s.nodes[name.String()]
	if !ok {
		return id.BranchName{}, false
	}
	return n.Parent, true
}

// Children returns the direct children of name, sorted by name. name may
// be Trunk.
func (s *Stack) Children(name id.BranchName) []id.BranchName {
	var out []id.BranchName
	for _, n := range s.nodes {
		if n.Parent.Equal(name) {
			out = append(out, n.Name)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Descendants returns every branch transitively below name (not
// including name itself), in breadth-first, name-sorted-per-level order
// for reproducibility. name may be Trunk.
func (s *Stack) Descendants(name id.BranchName) []id.BranchName {
	var out []id.BranchName
	var q ring.Q[id.BranchName]
	for _, c := range s.Children(name) {
		q.Push(c)
	}
	for !q.Empty() {
		cur := q.Pop()
		out = append(out, cur)
		for _, c := range s.Children(cur) {
			q.Push(c)
		}
	}
	return out
}

// AncestorsToTrunk returns the chain of ancestors from name's parent up
// to (but not including) Trunk, nearest first.
func (s *Stack) AncestorsToTrunk(name id.BranchName) []id.BranchName {
	var out []id.BranchName
	cur, ok := s.Parent(name)
	for ok && !cur.Equal(s.Trunk) {
		out = append(out, cur)
		cur, ok = s.Parent(cur)
	}
	return out
}

// TopologicalOrder returns every tracked branch in trunk-rooted pre-order
// (parents before children); ties are broken by branch name ascending.
func (s *Stack) TopologicalOrder() []id.BranchName {
	var out []id.BranchName
	var walk func(parent id.BranchName)
	walk = func(parent id.BranchName) {
		for _, c := range s.Children(parent) {
			out = append(out, c)
			walk(c)
		}
	}
	walk(s.Trunk)
	return out
}

// WouldCreateCycle reports whether setting child's parent to newParent
// would create a cycle: true if child is an ancestor of newParent, or
// child == newParent.
func (s *Stack) WouldCreateCycle(child, newParent id.BranchName) bool {
	if child.Equal(newParent) {
		return true
	}
	if newParent.Equal(s.Trunk) {
		return false
	}
	for _, a := range s.AncestorsToTrunk(newParent) {
		if a.Equal(child) {
			return true
		}
	}
	return newParent.Equal(child)
}

// Add tracks a new branch with the given parent. The parent must be
// Trunk or an existing tracked branch.
func (s *Stack) Add(name, parent id.BranchName) error {
	if s.Has(name) {
		return fmt.Errorf("%w: %v", ErrBranchExists, name)
	}
	if !parent.Equal(s.Trunk) && !s.Has(parent) {
		return fmt.Errorf("%w: parent %v", ErrMissingBranch, parent)
	}

	s.nodes[name.String()] = &Node{Name: name, Parent: parent}
	if err := s.validate(); err != nil {
		delete(s.nodes, name.String())
		return err
	}
	return nil
}

// SetParent re-parents an existing tracked branch, used by the merge
// engine to move children onto a grandparent. Rejects the change with
// [ErrInvariantViolation] if it would create a cycle.
func (s *Stack) SetParent(name, newParent id.BranchName) error {
	n, ok := s.nodes[name.String()]
	if !ok {
		return fmt.Errorf("%w: %v", ErrMissingBranch, name)
	}
	if !newParent.Equal(s.Trunk) && !s.Has(newParent) {
		return fmt.Errorf("%w: parent %v", ErrMissingBranch, newParent)
	}
	if s.WouldCreateCycle(name, newParent) {
		return fmt.Errorf("%w: %v would become its own ancestor via %v", ErrInvariantViolation, name, newParent)
	}

	old := n.Parent
	n.Parent = newParent
	if err := s.validate(); err != nil {
		n.Parent = old
		return err
	}
	return nil
}

// SetPR records the pull request number for a tracked branch. pr may be
// the zero value to clear it.
func (s *Stack) SetPR(name id.BranchName, pr id.PrNumber) error {
	n, ok := s.nodes[name.String()]
	if !ok {
		return fmt.Errorf("%w: %v", ErrMissingBranch, name)
	}

	old := n.PR
	n.PR = pr
	if err := s.validate(); err != nil {
		n.PR = old
		return err
	}
	return nil
}

// SetCreatedAt records a tracked branch's creation timestamp (RFC3339),
// used by [Stack.NextChild] to pick the "main path" child.
func (s *Stack) SetCreatedAt(name id.BranchName, createdAt string) {
	if n, ok := s.nodes[name.String()]; ok {
		n.CreatedAt = createdAt
	}
}

// SetLastSyncedParentTip records the parent tip a branch was last
// rebased onto.
func (s *Stack) SetLastSyncedParentTip(name id.BranchName, tip gitrepo.Commit) error {
	n, ok := s.nodes[name.String()]
	if !ok {
		return fmt.Errorf("%w: %v", ErrMissingBranch, name)
	}
	n.LastSyncedParentTip = tip
	return nil
}

// Remove untracks a branch. Legal only if it has no children; callers
// must re-parent children first (e.g. via SetParent).
func (s *Stack) Remove(name id.BranchName) error {
	if !s.Has(name) {
		return fmt.Errorf("%w: %v", ErrMissingBranch, name)
	}
	if len(s.Children(name)) > 0 {
		return fmt.Errorf("%w: %v", ErrHasChildren, name)
	}

	delete(s.nodes, name.String())
	return nil
}

// Rename changes a tracked branch's name, updating every child's parent
// pointer in the same transaction so the forest never observes a
// half-renamed state.
func (s *Stack) Rename(oldName, newName id.BranchName) error {
	n, ok := s.nodes[oldName.String()]
	if !ok {
		return fmt.Errorf("%w: %v", ErrMissingBranch, oldName)
	}
	if s.Has(newName) {
		return fmt.Errorf("%w: %v", ErrBranchExists, newName)
	}

	children := s.Children(oldName)

	delete(s.nodes, oldName.String())
	n.Name = newName
	s.nodes[newName.String()] = n
	for _, c := range children {
		s.nodes[c.String()].Parent = newName
	}

	if err := s.validate(); err != nil {
		// Roll back: this should be unreachable since rename alone
		// cannot violate invariants 1-4, but the revalidation pass is
		// mandatory for every mutation per spec §4.2.
		for _, c := range children {
			s.nodes[c.String()].Parent = oldName
		}
		delete(s.nodes, newName.String())
		n.Name = oldName
		s.nodes[oldName.String()] = n
		return err
	}
	return nil
}

// validate re-checks invariants 1-4 of spec §3 against the current
// in-memory forest.
func (s *Stack) validate() error {
	prs := make(map[id.PrNumber]id.BranchName)
	for _, n := range s.nodes {
		if !n.Parent.Equal(s.Trunk) {
			if _, ok := s.nodes[n.Parent.String()]; !ok {
				return fmt.Errorf("%w: %v has unknown parent %v", ErrInvariantViolation, n.Name, n.Parent)
			}
		}
		if !n.PR.IsZero() {
			if other, dup := prs[n.PR]; dup {
				return fmt.Errorf("%w: PR %v used by both %v and %v", ErrInvariantViolation, n.PR, other, n.Name)
			}
			prs[n.PR] = n.Name
		}
	}

	for name := range s.nodes {
		seen := map[string]bool{name: true}
		cur := s.nodes[name].Parent
		for !cur.Equal(s.Trunk) {
			if seen[cur.String()] {
				return fmt.Errorf("%w: cycle at %v", ErrInvariantViolation, name)
			}
			seen[cur.String()] = true
			next, ok := s.nodes[cur.String()]
			if !ok {
				break
			}
			cur = next.Parent
		}
	}
	return nil
}
