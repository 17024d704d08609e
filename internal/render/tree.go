package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/k4r01q/rung/internal/gitrepo"
	"github.com/k4r01q/rung/internal/id"
	"github.com/k4r01q/rung/internal/model"
)

// Palette mirrors the adaptive colors used across the teacher's CLI
// output, so rung's tree looks at home next to it.
var (
	colorInSync  = lipgloss.AdaptiveColor{Light: "2", Dark: "10"}
	colorBehind  = lipgloss.AdaptiveColor{Light: "3", Dark: "11"}
	colorCurrent = lipgloss.AdaptiveColor{Light: "6", Dark: "14"}
	colorTrunk   = lipgloss.AdaptiveColor{Light: "8", Dark: "8"}
)

var (
	styleInSync  = lipgloss.NewStyle().Foreground(colorInSync)
	styleBehind  = lipgloss.NewStyle().Foreground(colorBehind)
	styleCurrent = lipgloss.NewStyle().Foreground(colorCurrent).Bold(true)
	styleTrunk   = lipgloss.NewStyle().Foreground(colorTrunk)
)

// SyncState is the relationship between a branch and its parent's tip.
type SyncState struct {
	InSync bool
	Behind int
}

// NodeStatus is everything Tree needs to render one branch's line.
type NodeStatus struct {
	Branch  id.BranchName
	PR      id.PrNumber
	Sync    SyncState
	Current bool
}

// Tree renders a colored, indented tree of the stack anchored at the
// trunk, one line per tracked branch plus the trunk itself (spec §4.4:
// "status").
func Tree(s *model.Stack, statuses map[string]NodeStatus, noColor bool) string {
	var b strings.Builder

	trunkLine := s.Trunk.String()
	if !noColor {
		trunkLine = styleTrunk.Render(trunkLine)
	}
	b.WriteString(trunkLine)
	b.WriteString("\n")

	renderChildren(&b, s, s.Trunk, 1, statuses, noColor)
	return b.String()
}

func renderChildren(b *strings.Builder, s *model.Stack, parent id.BranchName, depth int, statuses map[string]NodeStatus, noColor bool) {
	for _, child := range s.Children(parent) {
		fmt.Fprintf(b, "%s└─ %s\n", strings.Repeat("  ", depth), nodeLabel(child, statuses[child.String()], noColor))
		renderChildren(b, s, child, depth+1, statuses, noColor)
	}
}

func nodeLabel(b id.BranchName, st NodeStatus, noColor bool) string {
	label := b.String()
	if !st.PR.IsZero() {
		label = fmt.Sprintf("%s (%s)", label, st.PR)
	}

	if st.Sync.Behind > 0 {
		label += fmt.Sprintf(" [behind %s]", humanize.Comma(int64(st.Sync.Behind)))
	}

	if noColor {
		if st.Current {
			return label + " *"
		}
		return label
	}

	style := styleInSync
	if st.Sync.Behind > 0 {
		style = styleBehind
	}
	if st.Current {
		style = styleCurrent
	}
	return style.Render(label)
}

// ComputeSyncState derives the sync state of branch against its parent's
// current tip (spec §4.4: `InSync` if merge_base(branch, parent) ==
// tip(parent); else `BehindBy(n)`).
func ComputeSyncState(ctx context.Context, git gitrepo.Git, branch, parent id.BranchName) (SyncState, error) {
	mergeBase, err := git.MergeBase(ctx, branch.String(), parent.String())
	if err != nil {
		return SyncState{}, err
	}
	parentTip, err := git.RevParse(ctx, parent.String())
	if err != nil {
		return SyncState{}, err
	}
	if mergeBase == parentTip {
		return SyncState{InSync: true}, nil
	}

	n, err := git.CountCommits(ctx, mergeBase.String(), parent.String())
	if err != nil {
		return SyncState{}, err
	}
	return SyncState{Behind: n}, nil
}
