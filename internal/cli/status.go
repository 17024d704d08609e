package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/k4r01q/rung/internal/forge"
	"github.com/k4r01q/rung/internal/render"
	"github.com/k4r01q/rung/internal/text"
)

// statusCmd renders the tracked stack as a tree anchored at the trunk
// (spec §4.4: "status").
type statusCmd struct {
	Fetch bool `name:"fetch" help:"refresh PR status from the forge before rendering"`
	JSON  bool `name:"json" help:"emit machine-readable JSON instead of a tree"`
}

func (*statusCmd) Help() string {
	return text.Dedent(`
		Prints the tracked branches as a tree rooted at the trunk, one
		line per branch, annotated with its PR number (if any) and how
		far it has fallen behind its parent.
	`)
}

// statusEntry is one branch's row in --json output.
type statusEntry struct {
	Branch     string `json:"branch"`
	Parent     string `json:"parent"`
	PR         string `json:"pr,omitempty"`
	ForgeState string `json:"forge_state,omitempty"`
	InSync     bool   `json:"in_sync"`
	Behind     int    `json:"behind"`
	Current    bool   `json:"current"`
	Created    string `json:"created,omitempty"`
}

func (cmd *statusCmd) Run(ctx context.Context, logger *log.Logger, g *Globals) error {
	if g.Quiet && cmd.JSON {
		return fmt.Errorf("--quiet and --json are mutually exclusive")
	}

	w, err := openWorkspace(ctx, logger)
	if err != nil {
		return err
	}

	var forgeStatus map[string]forge.Status
	if cmd.Fetch {
		fg, ferr := w.withForge(ctx, g.Token)
		if ferr != nil {
			logger.Warn("could not reach forge; showing cached status", "error", ferr)
		} else {
			forgeStatus = fetchForgeStatus(ctx, w, fg, logger)
		}
	}

	current, _ := w.git.CurrentBranch(ctx)

	statuses := make(map[string]render.NodeStatus, len(w.stack.Branches()))
	var entries []statusEntry
	for _, b := range w.stack.Branches() {
		node, _ := w.stack.Lookup(b)
		parent, _ := w.stack.Parent(b)
		sync, serr := render.ComputeSyncState(ctx, w.git, b, parent)
		if serr != nil {
			logger.Debug("compute sync state", "branch", b, "error", serr)
		}

		st := render.NodeStatus{Branch: b, PR: node.PR, Sync: sync, Current: b.Equal(current)}
		statuses[b.String()] = st

		entry := statusEntry{
			Branch: b.String(), Parent: parent.String(), PR: node.PR.String(),
			InSync: sync.InSync, Behind: sync.Behind, Current: st.Current,
		}
		if fs, ok := forgeStatus[b.String()]; ok {
			entry.ForgeState = string(fs.State)
		}
		if createdAt, err := time.Parse(time.RFC3339, node.CreatedAt); err == nil {
			entry.Created = humanize.Time(createdAt)
		}
		entries = append(entries, entry)
	}

	if cmd.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	noColor := g.NoColor || w.config.NoColor
	fmt.Print(render.Tree(w.stack, statuses, noColor))
	for _, e := range entries {
		if e.ForgeState == string(forge.PrMerged) || e.ForgeState == string(forge.PrClosed) {
			fmt.Printf("%s: pull request is %s on the forge\n", e.Branch, e.ForgeState)
		}
		if e.Current && e.Created != "" {
			fmt.Printf("%s: created %s\n", e.Branch, e.Created)
		}
	}
	return nil
}

// fetchForgeStatus refreshes every tracked branch's PR status from the
// forge (spec §4.4: "with --fetch, refresh PR status via the Forge
// driver").
func fetchForgeStatus(ctx context.Context, w *workspace, fg forge.Forge, logger *log.Logger) map[string]forge.Status {
	out := make(map[string]forge.Status)
	for _, b := range w.stack.Branches() {
		node, _ := w.stack.Lookup(b)
		if node.PR.IsZero() {
			continue
		}
		st, err := fg.FindStatus(ctx, node.PR)
		if err != nil {
			logger.Debug("fetch pr status", "branch", b, "error", err)
			continue
		}
		out[b.String()] = st
	}
	return out
}
