package model

import (
	"fmt"

	"github.com/k4r01q/rung/internal/gitrepo"
	"github.com/k4r01q/rung/internal/id"
	"github.com/k4r01q/rung/internal/store"
)

// FromStackFile builds an in-memory [Stack] from the on-disk shape
// loaded by [store.Store.Load]. The caller must have already validated
// the file (store.Load does this), so name/parent lookups here are
// assumed to succeed.
func FromStackFile(sf store.StackFile) (*Stack, error) {
	trunk, err := id.NewBranchName(sf.Trunk)
	if err != nil {
		return nil, fmt.Errorf("trunk name: %w", err)
	}

	s := New(trunk)
	s.extra = sf.Extra
	for name, rec := range sf.Branches {
		bn, err := id.NewBranchName(name)
		if err != nil {
			return nil, fmt.Errorf("branch name %q: %w", name, err)
		}

		parent := trunk
		if rec.Parent != id.Trunk {
			parent, err = id.NewBranchName(rec.Parent)
			if err != nil {
				return nil, fmt.Errorf("parent of %q: %w", name, err)
			}
		}

		var pr id.PrNumber
		if rec.PR != nil {
			pr, err = id.NewPrNumber(*rec.PR)
			if err != nil {
				return nil, fmt.Errorf("pr of %q: %w", name, err)
			}
		}

		s.nodes[bn.String()] = &Node{
			Name:                bn,
			Parent:              parent,
			PR:                  pr,
			LastSyncedParentTip: gitrepo.Commit(rec.LastSyncedParentTip),
			CreatedAt:           rec.CreatedAt,
		}
	}
	return s, nil
}

// ToStackFile converts the in-memory stack back to its on-disk shape for
// [store.Store.Save].
func ToStackFile(s *Stack) store.StackFile {
	branches := make(map[string]store.BranchRecord, len(s.nodes))
	for name, n := range s.nodes {
		parent := id.Trunk
		if !n.Parent.Equal(s.Trunk) {
			parent = n.Parent.String()
		}

		var pr *int
		if !n.PR.IsZero() {
			v := int(n.PR)
			pr = &v
		}

		branches[name] = store.BranchRecord{
			Parent:              parent,
			PR:                  pr,
			LastSyncedParentTip: n.LastSyncedParentTip.String(),
			CreatedAt:           n.CreatedAt,
		}
	}
	return store.StackFile{Trunk: s.Trunk.String(), Branches: branches, Extra: s.extra}
}
