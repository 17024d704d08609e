package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/k4r01q/rung/internal/gitrepo"
	"github.com/k4r01q/rung/internal/store"
	"github.com/k4r01q/rung/internal/text"
)

// initCmd initializes rung's on-disk state for the current repository
// (spec §4.1: "init").
type initCmd struct {
	Trunk  string `arg:"" optional:"" default:"main" help:"the long-lived base branch"`
	Remote string `name:"remote" default:"origin" help:"the git remote to fetch/push from"`
}

func (*initCmd) Help() string {
	return text.Dedent(`
		Initializes rung's state for the current repository, recording
		the trunk branch and remote. Fails if already initialized.
	`)
}

func (cmd *initCmd) Run(ctx context.Context, logger *log.Logger, g *Globals) error {
	git, err := gitrepo.Open(ctx, ".", gitrepo.ExecOptions{Log: logger})
	if err != nil {
		return err
	}
	gitDir, err := git.GitDir(ctx)
	if err != nil {
		return err
	}

	st := store.Open(gitDir, logger)
	unlock, err := st.Lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := st.Init(cmd.Trunk, cmd.Remote); err != nil {
		return err
	}
	if !g.Quiet {
		fmt.Printf("initialized rung, trunk=%s remote=%s\n", cmd.Trunk, cmd.Remote)
	}
	return nil
}
