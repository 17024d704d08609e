package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/k4r01q/rung/internal/doctor"
	"github.com/k4r01q/rung/internal/text"
)

// doctorCmd runs rung's read-only integrity checks (spec §4.9:
// "Doctor").
type doctorCmd struct{}

func (*doctorCmd) Help() string {
	return text.Dedent(`
		Runs read-only checks against the tracked stack, the local
		repository, and (if reachable) the forge, and prints every
		finding with its severity and a suggested fix.
	`)
}

func (*doctorCmd) Run(ctx context.Context, logger *log.Logger, g *Globals) error {
	w, err := openWorkspace(ctx, logger)
	if err != nil {
		return err
	}

	var findings []doctor.Finding
	if forgeDriver, ferr := w.withForge(ctx, g.Token); ferr != nil {
		logger.Warn("forge unreachable; skipping forge-coherence checks", "error", ferr)
		findings = doctor.New(w.git, w.store, nil).Run(ctx, w.stack)
	} else {
		findings = doctor.New(w.git, w.store, forgeDriver).Run(ctx, w.stack)
	}

	if len(findings) == 0 {
		if !g.Quiet {
			fmt.Println("no issues found")
		}
		return nil
	}

	errorCount := 0
	for _, f := range findings {
		fmt.Printf("[%s] %s\n", f.Severity, f.Message)
		if f.Suggestion != "" {
			fmt.Printf("  suggestion: %s\n", f.Suggestion)
		}
		if f.Severity == doctor.Error {
			errorCount++
		}
	}
	if errorCount > 0 {
		return fmt.Errorf("doctor found %d error(s)", errorCount)
	}
	return nil
}
