// Command rung manages a stack of dependent GitHub pull requests: track
// branches as a forest rooted at the trunk, keep them rebased onto their
// parents, and submit/merge them as linked pull requests (spec §1).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"

	"github.com/k4r01q/rung/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := log.New(os.Stderr)
	logger.SetReportTimestamp(false)

	noColor := os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stderr.Fd())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt)
	go func() {
		<-sigc
		signal.Stop(sigc)
		logger.Warn("interrupted, finishing current step (press Ctrl-C again to force-quit)")
		cancel()
	}()

	var root cli.Root
	root.NoColor = noColor

	kctx, err := kong.New(&root,
		kong.Name("rung"),
		kong.Description("rung manages a stack of dependent GitHub pull requests."),
		kong.Bind(logger, &root.Globals),
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.UsageOnError(),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return cli.ExitError
	}

	parsed, err := kctx.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return cli.ExitUsage
	}

	runErr := parsed.Run()
	if runErr != nil && !root.Quiet {
		fmt.Fprintln(os.Stderr, "rung:", runErr)
	}
	return cli.ExitCode(runErr)
}
