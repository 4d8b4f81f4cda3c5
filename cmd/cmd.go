// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/dnbdoctor/labelsync/internal/formatter"
	"github.com/dnbdoctor/labelsync/internal/legacy"
	"github.com/urfave/cli/v3"
)

// globalFlags are accepted before any command.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Path to a dotenv file loaded before reading the environment",
			Value: ".env",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
		&cli.BoolFlag{
			Name:  "progress",
			Usage: "Print task progress to stdout",
		},
	}
}

func formatFlag(value string) *cli.StringFlag {
	names := make([]string, 0, len(formatter.Formats))
	for _, f := range formatter.Formats {
		names = append(names, string(f))
	}
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (" + strings.Join(names, ", ") + ")",
		Value:   value,
	}
}

func taskFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Stop after this many records (0 for all)",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Read and report without writing",
		},
		formatFlag("text"),
	}
}

// importCommand handles the WordPress import tasks
func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import content and audience data from WordPress",
		Commands: []*cli.Command{
			{
				Name:   "artists",
				Usage:  "Import artists from the REST API and relocate their images",
				Flags:  taskFlags(),
				Action: r.ImportArtists,
			},
			{
				Name:   "news",
				Usage:  "Import news posts from the REST API and relocate their cover images",
				Flags:  taskFlags(),
				Action: r.ImportNews,
			},
			{
				Name:   "subscribers",
				Usage:  "Copy subscribers from the legacy database",
				Flags:  taskFlags(),
				Action: r.ImportSubscribers,
			},
			{
				Name:   "feedback",
				Usage:  "Import demo feedback from the legacy database",
				Flags:  taskFlags(),
				Action: r.ImportFeedback,
			},
		},
	}
}

// subscribersCommand handles subscriber maintenance
func subscribersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "subscribers",
		Aliases: []string{"subs"},
		Usage:   "Subscriber maintenance",
		Commands: []*cli.Command{
			{
				Name:  "dedupe",
				Usage: "Plan (and with --apply, merge) subscribers sharing a canonical email",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "apply",
						Usage: "Merge the planned clusters",
					},
					formatFlag("text"),
				},
				Action: r.SubscribersDedupe,
			},
			{
				Name:  "sync-influencers",
				Usage: "Upsert an influencer for every subscriber in a category",
				Flags: append(taskFlags(), &cli.StringFlag{
					Name:  "category",
					Usage: "Category name",
					Value: legacy.CategoryPromoters,
				}),
				Action: r.SyncInfluencers,
			},
		},
	}
}

// newsCommand handles maintenance of imported news
func newsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "news",
		Usage: "News maintenance",
		Commands: []*cli.Command{
			{
				Name:   "images",
				Usage:  "Relocate legacy images embedded in news content",
				Flags:  taskFlags(),
				Action: r.NewsImages,
			},
		},
	}
}

// runsCommand inspects the import journal
func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Inspect the import run journal",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent import runs",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "task",
						Usage: "Only show runs of this task",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
					formatFlag("text"),
				},
				Action: r.RunsList,
			},
		},
	}
}

// setupCommand handles setup operations for the database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recently applied migration",
				Action: r.SetupRollback,
			},
			{
				Name:   "config",
				Usage:  "Write the example configuration to --config",
				Action: r.SetupConfig,
			},
		},
	}
}
