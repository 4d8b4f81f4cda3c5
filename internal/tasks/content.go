package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/dnbdoctor/labelsync/internal/models"
	"github.com/dnbdoctor/labelsync/internal/shared"
	"github.com/dnbdoctor/labelsync/internal/storage"
	"github.com/dnbdoctor/labelsync/internal/wordpress"
)

// ArtistFromPost maps a WordPress artist post onto an Artist. Image fields are left to the caller.
func ArtistFromPost(p wordpress.Post) *models.Artist {
	return &models.Artist{
		WPID:       p.ID,
		Slug:       p.Slug,
		Name:       p.DecodedTitle(),
		Bio:        p.Content.Rendered,
		Facebook:   p.ACFString("facebook"),
		Instagram:  p.ACFString("instagram"),
		Soundcloud: p.ACFString("soundcloud"),
		Spotify:    p.ACFString("spotify"),
		Website:    p.ACFString("website"),
	}
}

// NewsFromPost maps a WordPress news post onto a News. Cover image fields are left to the caller.
func NewsFromPost(p wordpress.Post) *models.News {
	return &models.News{
		WPID:              p.ID,
		Slug:              p.Slug,
		Title:             p.DecodedTitle(),
		Content:           p.Content.Rendered,
		Excerpt:           p.Excerpt.Rendered,
		SoundcloudURL:     p.ACFString("scsc"),
		RelatedArtistWPID: p.MetaInt("_related_artist"),
		PublishedAt:       p.PublishedAt(),
	}
}

// ImportArtists pages through the artists collection, relocates each featured image and upserts
// the artist by slug.
func (e *Engine) ImportArtists(ctx context.Context, opts Options, progress chan<- ProgressUpdate) (*Stats, error) {
	return e.importCollection(ctx, TaskArtists, wordpress.CollectionArtists, opts, progress,
		func(ctx context.Context, post wordpress.Post, j *journal) (string, bool, error) {
			artist := ArtistFromPost(post)
			if opts.DryRun {
				return artist.Slug, false, artist.Validate()
			}

			asset, err := e.relocateFeatured(ctx, post, TaskArtists, artist.Slug, j)
			if err != nil {
				return artist.Slug, false, err
			}
			artist.ImageURL, artist.ImageKey = asset.URL, asset.Key

			created, err := e.artists.UpsertBySlug(ctx, artist)
			return artist.Slug, created, err
		})
}

// ImportNews pages through the news collection, relocates each cover image and upserts the post
// by slug.
func (e *Engine) ImportNews(ctx context.Context, opts Options, progress chan<- ProgressUpdate) (*Stats, error) {
	return e.importCollection(ctx, TaskNews, wordpress.CollectionNews, opts, progress,
		func(ctx context.Context, post wordpress.Post, j *journal) (string, bool, error) {
			news := NewsFromPost(post)
			if opts.DryRun {
				return news.Slug, false, news.Validate()
			}

			asset, err := e.relocateFeatured(ctx, post, TaskNews, news.Slug, j)
			if err != nil {
				return news.Slug, false, err
			}
			news.CoverImageURL, news.CoverImageKey = asset.URL, asset.Key

			created, err := e.news.UpsertBySlug(ctx, news)
			return news.Slug, created, err
		})
}

// importFunc handles one post and reports its key and whether a row was created.
type importFunc func(ctx context.Context, post wordpress.Post, j *journal) (string, bool, error)

func (e *Engine) importCollection(ctx context.Context, task, collection string, opts Options, progress chan<- ProgressUpdate, fn importFunc) (*Stats, error) {
	if e.wp == nil {
		return nil, fmt.Errorf("%w: WordPress client not initialized", shared.ErrServiceUnavailable)
	}

	j, err := e.begin(ctx, task, opts.DryRun)
	if err != nil {
		return nil, err
	}
	if !opts.DryRun && !e.relocator.Enabled() {
		j.logger.Warn("object storage not configured, keeping original image URLs")
	}

	handled := 0
	_, err = e.wp.Each(ctx, collection, func(page wordpress.Page) error {
		e.sendProgress(progress, fetchPageUpdate(collection, page.Number, len(page.Posts)))

		total := page.TotalItems
		if opts.Limit > 0 && (total == 0 || total > opts.Limit) {
			total = opts.Limit
		}
		j.stats.Total = max(j.stats.Total, total)

		for _, post := range page.Posts {
			if err := ctx.Err(); err != nil {
				return err
			}
			handled++
			j.stats.Total = max(j.stats.Total, handled)

			key, created, err := fn(ctx, post, j)
			switch {
			case errors.Is(err, shared.ErrValidation):
				j.stats.Skipped++
				j.logger.Warn("skipping invalid post", "id", post.ID, "slug", post.Slug, "error", err)
			case err != nil:
				return err
			default:
				switch {
				case opts.DryRun:
					j.stats.Skipped++
				case created:
					j.stats.Created++
				default:
					j.stats.Updated++
				}
				j.logger.Info(fmt.Sprintf("Imported %s", progressCount(handled, j.stats.Total)), "slug", key)
				e.sendProgress(progress, importedUpdate(handled, j.stats.Total, key))
			}

			// A limit on a page boundary must not fetch the next page.
			if opts.Limit > 0 && handled >= opts.Limit {
				return errLimitReached
			}
		}
		return nil
	})
	if errors.Is(err, errLimitReached) {
		err = nil
	}

	return j.finish(ctx, err)
}

// relocateFeatured copies the post's featured image, keeping the source URL on soft failure.
func (e *Engine) relocateFeatured(ctx context.Context, post wordpress.Post, entityType, slug string, j *journal) (storage.Asset, error) {
	asset, err := e.relocator.Relocate(ctx, post.FeaturedImageURL(), entityType, slug)
	if err != nil {
		return asset, err
	}
	if asset.Failed() {
		j.stats.ImageFailures++
	}
	return asset, nil
}

// RewriteNewsImages relocates <img> tags in stored news content that still point at the legacy
// site and rewrites their src. Posts without legacy images are left untouched.
func (e *Engine) RewriteNewsImages(ctx context.Context, opts Options, progress chan<- ProgressUpdate) (*Stats, error) {
	j, err := e.begin(ctx, TaskNewsImages, opts.DryRun)
	if err != nil {
		return nil, err
	}

	if len(e.legacyHosts) == 0 {
		return j.finish(ctx, fmt.Errorf("%w: no legacy hosts configured", shared.ErrMissingConfig))
	}
	if !opts.DryRun && !e.relocator.Enabled() {
		return j.finish(ctx, fmt.Errorf("%w: cannot relocate content images", shared.ErrStorageDisabled))
	}

	posts, err := e.news.List(ctx, 0)
	if err != nil {
		return j.finish(ctx, err)
	}

	isLegacy := storage.LegacyHostMatcher(e.legacyHosts)
	var pending []*models.News
	for _, post := range posts {
		if len(storage.LegacyImages(post.Content, isLegacy)) > 0 {
			pending = append(pending, post)
		} else {
			j.stats.Skipped++
		}
	}
	if opts.Limit > 0 && len(pending) > opts.Limit {
		pending = pending[:opts.Limit]
	}
	j.stats.Total = len(pending)

	for i, post := range pending {
		if err := ctx.Err(); err != nil {
			return j.finish(ctx, err)
		}

		if opts.DryRun {
			images := storage.LegacyImages(post.Content, isLegacy)
			j.logger.Info("would relocate images", "slug", post.Slug, "images", len(images))
			e.sendProgress(progress, rewriteUpdate(i+1, len(pending), post.Slug, 0))
			continue
		}

		content, result, err := e.relocator.RewriteContent(ctx, post.Content, TaskNews, post.Slug, isLegacy)
		if err != nil {
			return j.finish(ctx, err)
		}
		j.stats.ImageFailures += result.Failed

		if result.Changed() {
			if err := e.news.UpdateContent(ctx, post.ID, content); err != nil {
				return j.finish(ctx, err)
			}
			j.stats.Updated++
		} else {
			j.stats.Failed++
		}

		j.logger.Info(fmt.Sprintf("Rewrote %d/%d", i+1, len(pending)), "slug", post.Slug, "relocated", result.Relocated, "failed", result.Failed)
		e.sendProgress(progress, rewriteUpdate(i+1, len(pending), post.Slug, result.Relocated))
	}

	return j.finish(ctx, nil)
}
