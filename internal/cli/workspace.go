package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/k4r01q/rung/internal/forge"
	"github.com/k4r01q/rung/internal/forge/github"
	"github.com/k4r01q/rung/internal/gitrepo"
	"github.com/k4r01q/rung/internal/mergeengine"
	"github.com/k4r01q/rung/internal/model"
	"github.com/k4r01q/rung/internal/store"
	"github.com/k4r01q/rung/internal/syncengine"
)

// workspace bundles the capabilities every mutating command needs,
// opened once per invocation (spec §9: "capability injection" — the
// CLI is the one place that wires real implementations together).
type workspace struct {
	git    *gitrepo.Exec
	store  *store.Store
	config store.ConfigFile
	stack  *model.Stack
	sync   *syncengine.Engine
	merge  *mergeengine.Engine
	log    *log.Logger
}

// openWorkspace opens the git repository rooted at the current
// directory, loads rung's persisted state, and builds the sync and
// merge engines around it. Commands that only read the stack (status,
// log) can ignore sync/merge.
func openWorkspace(ctx context.Context, logger *log.Logger) (*workspace, error) {
	git, err := gitrepo.Open(ctx, ".", gitrepo.ExecOptions{Log: logger})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	gitDir, err := git.GitDir(ctx)
	if err != nil {
		return nil, err
	}
	st := store.Open(gitDir, logger)

	sf, cf, _, err := st.Load()
	if err != nil {
		return nil, err
	}

	stack, err := model.FromStackFile(sf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrCorruptState, err)
	}

	syncEngine := syncengine.New(git, st, cf.Remote, logger)
	mergeEngine := mergeengine.New(git, nil, syncEngine, cf.Remote, logger)

	return &workspace{
		git: git, store: st, config: cf, stack: stack,
		sync: syncEngine, merge: mergeEngine, log: logger,
	}, nil
}

// withForge builds a GitHub forge driver from the workspace's remote and
// binds it to the merge engine, for commands that talk to the forge
// (submit, merge, doctor, status --fetch).
func (w *workspace) withForge(ctx context.Context, token string) (forge.Forge, error) {
	url, err := w.git.RemoteURL(ctx, w.config.Remote)
	if err != nil {
		return nil, fmt.Errorf("resolve remote %q: %w", w.config.Remote, err)
	}
	repo, err := github.ParseRepoInfo(url)
	if err != nil {
		return nil, fmt.Errorf("guess forge repository: %w", err)
	}

	fg := github.New(ctx, repo.Owner, repo.Name, github.TokenSource(token))
	w.merge.Forge = fg
	return fg, nil
}

// save persists the current in-memory stack.
func (w *workspace) save() error {
	return w.store.Save(model.ToStackFile(w.stack))
}
