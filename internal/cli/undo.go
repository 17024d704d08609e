package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/k4r01q/rung/internal/text"
)

// undoCmd reverts the most recent successful sync (spec §4.5: "Undo").
type undoCmd struct{}

func (*undoCmd) Help() string {
	return text.Dedent(`
		Reverts the most recent successful sync: every branch it
		touched is reset to its pre-sync tip. Only one undo slot
		exists; a second undo fails.
	`)
}

func (*undoCmd) Run(ctx context.Context, logger *log.Logger, g *Globals) error {
	w, err := openWorkspace(ctx, logger)
	if err != nil {
		return err
	}
	unlock, err := w.store.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := w.sync.Undo(ctx, w.stack); err != nil {
		return err
	}
	if !g.Quiet {
		fmt.Println("undo complete")
	}
	return nil
}
