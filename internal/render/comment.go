// Package render formats a rung stack for human consumption: a
// deterministic PR/comment body (spec §4.8) and a colored terminal tree
// for `rung status` (spec §4.4).
package render

import (
	"fmt"
	"strings"

	"github.com/k4r01q/rung/internal/id"
	"github.com/k4r01q/rung/internal/model"
)

// StackCommentMarker is the fixed sentinel that ends every stack comment
// rung posts. Submit uses its presence to tell rung's own comment apart
// from a human's when deciding update vs create (spec §6).
const StackCommentMarker = "<!-- rung:stack-comment v1 -->"

// Comment renders the stack-comment body for a pull request: the chain
// of ancestors from highlight up to the trunk, with highlight marked,
// followed by the sentinel marker (spec §4.8).
//
// Comment is a pure function of its inputs: given the same stack and
// highlighted branch, it always produces the same string.
func Comment(s *model.Stack, highlight id.BranchName) string {
	chain := append([]id.BranchName{highlight}, s.AncestorsToTrunk(highlight)...)

	var b strings.Builder
	b.WriteString("### Stack\n\n")
	for i := len(chain) - 1; i >= 0; i-- {
		branch := chain[i]
		line := branchLine(s, branch, branch.Equal(highlight))
		fmt.Fprintf(&b, "%s- %s\n", strings.Repeat("  ", len(chain)-1-i), line)
	}
	fmt.Fprintf(&b, "  - %s\n", s.Trunk.String())

	b.WriteString("\n")
	b.WriteString(StackCommentMarker)
	return b.String()
}

func branchLine(s *model.Stack, b id.BranchName, highlighted bool) string {
	node, _ := s.Lookup(b)
	label := b.String()
	if !node.PR.IsZero() {
		label = fmt.Sprintf("%s (%s)", label, node.PR)
	}
	if highlighted {
		label = "**" + label + "** <-- you are here"
	}
	return label
}
