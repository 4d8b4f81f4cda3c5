package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dnbdoctor/labelsync/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApp(NewRunner(RunnerOpts{Logger: logger}))
	if err := app.Run(ctx, os.Args); err != nil {
		logger.Error("application error", "error", err)
		stop()
		os.Exit(1)
	}
}

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "labelsync",
		Usage:    "Import the DnB Doctor WordPress site into the label database",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Before:   r.Before,
		Commands: r.register(),
	}
}
