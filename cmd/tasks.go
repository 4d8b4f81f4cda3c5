package main

import (
	"context"
	"fmt"

	"github.com/dnbdoctor/labelsync/internal/formatter"
	"github.com/dnbdoctor/labelsync/internal/shared"
	"github.com/dnbdoctor/labelsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ImportArtists imports the artists collection.
func (r *Runner) ImportArtists(ctx context.Context, cmd *cli.Command) error {
	return r.runTask(ctx, cmd, engineNeeds{wordpress: true, storage: true}, (*tasks.Engine).ImportArtists)
}

// ImportNews imports the news collection.
func (r *Runner) ImportNews(ctx context.Context, cmd *cli.Command) error {
	return r.runTask(ctx, cmd, engineNeeds{wordpress: true, storage: true}, (*tasks.Engine).ImportNews)
}

// ImportSubscribers copies legacy subscribers.
func (r *Runner) ImportSubscribers(ctx context.Context, cmd *cli.Command) error {
	return r.runTask(ctx, cmd, engineNeeds{legacy: true}, (*tasks.Engine).ImportSubscribers)
}

// ImportFeedback imports legacy demo feedback.
func (r *Runner) ImportFeedback(ctx context.Context, cmd *cli.Command) error {
	return r.runTask(ctx, cmd, engineNeeds{legacy: true}, (*tasks.Engine).ImportFeedback)
}

// NewsImages relocates legacy images embedded in stored news content.
func (r *Runner) NewsImages(ctx context.Context, cmd *cli.Command) error {
	return r.runTask(ctx, cmd, engineNeeds{storage: true}, (*tasks.Engine).RewriteNewsImages)
}

// SyncInfluencers upserts influencers for the subscribers of --category.
func (r *Runner) SyncInfluencers(ctx context.Context, cmd *cli.Command) error {
	category := cmd.String("category")
	if category == "" {
		return fmt.Errorf("%w: --category", shared.ErrMissingArgument)
	}

	return r.runTask(ctx, cmd, engineNeeds{},
		func(e *tasks.Engine, ctx context.Context, opts tasks.Options, progress chan<- tasks.ProgressUpdate) (*tasks.Stats, error) {
			return e.SyncInfluencers(ctx, category, opts, progress)
		})
}

// SubscribersDedupe prints the merge plan and applies it with --apply.
func (r *Runner) SubscribersDedupe(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	apply := cmd.Bool("apply")

	return r.withEngine(ctx, engineNeeds{}, func(engine *tasks.Engine) error {
		progress, wait := r.startProgress(cmd)
		result, err := engine.Dedupe(ctx, apply, progress)
		wait()
		if err != nil {
			return err
		}

		data, err := formatter.RenderPlan(format, result)
		if err != nil {
			return err
		}
		if err := r.writeBytes(data); err != nil {
			return err
		}

		if !apply && len(result.Clusters) > 0 && format == formatter.FormatText {
			return r.writePlain("%s\n", r.painter.Muted("Dry run: rerun with --apply to merge"))
		}
		return nil
	})
}

// RunsList prints recent import journal entries.
func (r *Runner) RunsList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	return r.withEngine(ctx, engineNeeds{}, func(engine *tasks.Engine) error {
		runs, err := engine.Runs(ctx, cmd.String("task"), cmd.Int("limit"))
		if err != nil {
			return err
		}

		data, err := formatter.RenderRuns(format, runs)
		if err != nil {
			return err
		}
		return r.writeBytes(data)
	})
}
