package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dnbdoctor/labelsync/internal/legacy"
	"github.com/dnbdoctor/labelsync/internal/models"
	"github.com/dnbdoctor/labelsync/internal/shared"
)

const (
	importSource = "wordpress"
	importTag    = "wp-import"
)

// SubscriberFromLegacy builds the subscriber created for a legacy row. CategoryID is left to the caller.
func SubscriberFromLegacy(ls legacy.Subscriber) *models.Subscriber {
	return &models.Subscriber{
		Email:  shared.NormalizeEmail(ls.Email),
		Name:   strings.TrimSpace(ls.Name),
		Status: models.StatusActive,
		Source: importSource,
		Tags:   []string{importTag},
		Notes:  fmt.Sprintf("Imported from WordPress (id %d, added %s)", ls.ID, ls.AddedDate()),
	}
}

// ImportSubscribers copies legacy subscribers whose email is not in the target store yet.
// Existing subscribers are never overwritten.
func (e *Engine) ImportSubscribers(ctx context.Context, opts Options, progress chan<- ProgressUpdate) (*Stats, error) {
	if e.legacy == nil {
		return nil, fmt.Errorf("%w: legacy database not connected", shared.ErrServiceUnavailable)
	}

	j, err := e.begin(ctx, TaskSubscribers, opts.DryRun)
	if err != nil {
		return nil, err
	}

	rows, err := e.legacy.Subscribers(ctx)
	if err != nil {
		return j.finish(ctx, err)
	}
	e.sendProgress(progress, readLegacyUpdate("subscribers", len(rows)))

	if opts.Limit > 0 && len(rows) > opts.Limit {
		rows = rows[:opts.Limit]
	}
	j.stats.Total = len(rows)

	categories := make(map[string]string)
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return j.finish(ctx, err)
		}

		sub := SubscriberFromLegacy(row)
		if sub.Email == "" {
			j.stats.Skipped++
			j.logger.Warn("skipping subscriber without email", "legacy_id", row.ID)
			continue
		}

		_, err := e.subscribers.FindByEmail(ctx, sub.Email)
		if err == nil {
			j.stats.Skipped++
			j.logger.Debug("subscriber exists, skipping", "email", sub.Email)
			continue
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return j.finish(ctx, err)
		}

		if opts.DryRun {
			j.stats.Skipped++
			j.logger.Info("would import subscriber", "email", sub.Email, "category", legacy.MapGroup(row.GroupName))
			continue
		}

		categoryID, err := e.categoryFor(ctx, row.GroupName, categories)
		if err != nil {
			return j.finish(ctx, err)
		}
		sub.CategoryID = categoryID

		if err := e.subscribers.Create(ctx, sub); err != nil {
			if errors.Is(err, shared.ErrValidation) {
				j.stats.Failed++
				j.logger.Warn("skipping invalid subscriber", "legacy_id", row.ID, "error", err)
				continue
			}
			return j.finish(ctx, err)
		}
		j.stats.Created++

		j.logger.Info(fmt.Sprintf("Imported %d/%d", i+1, len(rows)), "email", sub.Email)
		e.sendProgress(progress, importedUpdate(i+1, len(rows), sub.Email))
	}

	return j.finish(ctx, nil)
}

// categoryFor maps a legacy group to a category ID, creating the category on first use.
func (e *Engine) categoryFor(ctx context.Context, group string, cache map[string]string) (string, error) {
	name := legacy.MapGroup(group)
	if name == "" {
		return "", nil
	}
	if id, ok := cache[strings.ToLower(name)]; ok {
		return id, nil
	}

	category, created, err := e.categories.FindOrCreate(ctx, &models.Category{
		Name:        name,
		Color:       legacy.CategoryColor(name),
		Description: legacy.CategoryDescription(name, group),
	})
	if err != nil {
		return "", err
	}
	if created {
		e.logger.Info("created category", "name", category.Name, "group", group)
	}

	cache[strings.ToLower(name)] = category.ID
	return category.ID, nil
}

// ImportFeedback replaces the imported demo feedback of every legacy post carrying a feedback blob.
//
// A blob that does not unserialize skips that post only. Entries of unknown shape are stored with
// their raw JSON and counted as unrecognized.
func (e *Engine) ImportFeedback(ctx context.Context, opts Options, progress chan<- ProgressUpdate) (*Stats, error) {
	if e.legacy == nil {
		return nil, fmt.Errorf("%w: legacy database not connected", shared.ErrServiceUnavailable)
	}

	j, err := e.begin(ctx, TaskFeedback, opts.DryRun)
	if err != nil {
		return nil, err
	}

	rows, err := e.legacy.PostMeta(ctx)
	if err != nil {
		return j.finish(ctx, err)
	}
	e.sendProgress(progress, readLegacyUpdate("postmeta rows", len(rows)))

	var posts []legacy.Post
	for _, post := range legacy.GroupPostMeta(rows) {
		if _, ok := post.Meta[legacy.MetaFeedback]; ok {
			posts = append(posts, post)
		}
	}
	if opts.Limit > 0 && len(posts) > opts.Limit {
		posts = posts[:opts.Limit]
	}
	j.stats.Total = len(posts)

	for i, post := range posts {
		if err := ctx.Err(); err != nil {
			return j.finish(ctx, err)
		}

		entries, err := legacy.DecodeFeedback(post.Feedback())
		if err != nil {
			j.stats.Failed++
			j.logger.Warn("skipping post with undecodable feedback", "post_id", post.ID, "error", err)
			continue
		}

		for _, entry := range entries {
			if entry.Unrecognized {
				j.stats.Unrecognized++
				j.logger.Warn("unrecognized feedback entry kept as raw JSON", "post_id", post.ID, "error", entry.Err())
			}
		}

		if opts.DryRun {
			j.stats.Skipped++
			j.logger.Info("would import feedback", "post_id", post.ID, "entries", len(entries))
			continue
		}

		feedback := legacy.ToDemoFeedback(post, entries, e.now())
		deleted, err := e.feedback.ReplaceForPost(ctx, post.ID, feedback)
		if err != nil {
			return j.finish(ctx, err)
		}
		if deleted > 0 {
			j.stats.Updated++
		} else {
			j.stats.Created++
		}

		j.logger.Info(fmt.Sprintf("Imported %d/%d", i+1, len(posts)), "post_id", post.ID, "entries", len(feedback), "replaced", deleted)
		e.sendProgress(progress, importedUpdate(i+1, len(posts), fmt.Sprintf("post %d", post.ID)))
	}

	return j.finish(ctx, nil)
}

// SyncInfluencers upserts an influencer for every subscriber in the named category.
func (e *Engine) SyncInfluencers(ctx context.Context, categoryName string, opts Options, progress chan<- ProgressUpdate) (*Stats, error) {
	j, err := e.begin(ctx, TaskSyncInfluencers, opts.DryRun)
	if err != nil {
		return nil, err
	}

	category, err := e.categories.FindByName(ctx, categoryName)
	if err != nil {
		return j.finish(ctx, fmt.Errorf("category %q: %w", categoryName, err))
	}

	subs, err := e.subscribers.ListByCategory(ctx, category.ID)
	if err != nil {
		return j.finish(ctx, err)
	}
	if opts.Limit > 0 && len(subs) > opts.Limit {
		subs = subs[:opts.Limit]
	}
	j.stats.Total = len(subs)

	for i, sub := range subs {
		if err := ctx.Err(); err != nil {
			return j.finish(ctx, err)
		}
		if opts.DryRun {
			j.stats.Skipped++
			continue
		}

		created, err := e.influencers.Upsert(ctx, &models.Influencer{
			Email:      shared.NormalizeEmail(sub.Email),
			Name:       sub.Name,
			Tags:       sub.Tags,
			CategoryID: category.ID,
		})
		if err != nil {
			if errors.Is(err, shared.ErrValidation) {
				j.stats.Failed++
				j.logger.Warn("skipping subscriber", "email", sub.Email, "error", err)
				continue
			}
			return j.finish(ctx, err)
		}
		if created {
			j.stats.Created++
		} else {
			j.stats.Updated++
		}

		e.sendProgress(progress, syncUpdate(i+1, len(subs), sub.Email))
	}

	return j.finish(ctx, nil)
}
