package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dnbdoctor/labelsync/internal/models"
	"github.com/dnbdoctor/labelsync/internal/shared"
)

const newsColumns = `id, wp_id, slug, title, content, excerpt, cover_image_url, cover_image_key,
	soundcloud_url, related_artist_wp_id, published_at, created_at, updated_at`

// NewsRepository persists news posts keyed by slug.
type NewsRepository struct {
	db *sql.DB
}

// NewNewsRepository creates a new NewsRepository with the given database connection
func NewNewsRepository(db *sql.DB) *NewsRepository {
	return &NewsRepository{db: db}
}

// FindBySlug returns the post with slug or [shared.ErrNotFound].
func (r *NewsRepository) FindBySlug(ctx context.Context, slug string) (*models.News, error) {
	query := `SELECT ` + newsColumns + ` FROM news WHERE slug = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, slug))
}

// UpsertBySlug inserts a new post or updates the one sharing its slug.
//
// On update, empty optional fields keep the stored value. Reports whether a row was created.
func (r *NewsRepository) UpsertBySlug(ctx context.Context, news *models.News) (bool, error) {
	if err := news.Validate(); err != nil {
		return false, err
	}

	existing, err := r.FindBySlug(ctx, news.Slug)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return false, err
	}

	now := time.Now().UTC()
	if existing == nil {
		news.ID = shared.GenerateID()
		news.CreatedAt, news.UpdatedAt = time.Time{}, time.Time{}
		news.Touch(now)

		query := `INSERT INTO news (` + newsColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		_, err := r.db.ExecContext(ctx, query,
			news.ID, nullableInt(news.WPID), news.Slug, news.Title, nullable(news.Content),
			nullable(news.Excerpt), nullable(news.CoverImageURL), nullable(news.CoverImageKey),
			nullable(news.SoundcloudURL), nullableInt(news.RelatedArtistWPID), nullableTime(news.PublishedAt),
			news.CreatedAt, news.UpdatedAt,
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert news %s: %w", news.Slug, err)
		}
		return true, nil
	}

	query := `
		UPDATE news
		SET wp_id = COALESCE(?, wp_id), title = ?, content = COALESCE(?, content),
			excerpt = COALESCE(?, excerpt), cover_image_url = COALESCE(?, cover_image_url),
			cover_image_key = COALESCE(?, cover_image_key), soundcloud_url = COALESCE(?, soundcloud_url),
			related_artist_wp_id = COALESCE(?, related_artist_wp_id),
			published_at = COALESCE(?, published_at), updated_at = ?
		WHERE id = ?
	`
	_, err = r.db.ExecContext(ctx, query,
		nullableInt(news.WPID), news.Title, nullable(news.Content), nullable(news.Excerpt),
		nullable(news.CoverImageURL), nullable(news.CoverImageKey), nullable(news.SoundcloudURL),
		nullableInt(news.RelatedArtistWPID), nullableTime(news.PublishedAt), now, existing.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update news %s: %w", news.Slug, err)
	}

	news.ID = existing.ID
	news.CreatedAt = existing.CreatedAt
	news.UpdatedAt = now
	return false, nil
}

// List returns news posts, newest first. A non-positive limit returns all of them.
func (r *NewsRepository) List(ctx context.Context, limit int) ([]*models.News, error) {
	query := `SELECT ` + newsColumns + ` FROM news ORDER BY published_at DESC, slug`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query news: %w", err)
	}
	defer rows.Close()

	var posts []*models.News
	for rows.Next() {
		post, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// UpdateContent replaces the HTML body of a post.
func (r *NewsRepository) UpdateContent(ctx context.Context, id, content string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE news SET content = ?, updated_at = ? WHERE id = ?`, content, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update news content: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: news %s", shared.ErrNotFound, id)
	}
	return nil
}

// Count returns the number of news posts.
func (r *NewsRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM news`)
}

func (r *NewsRepository) scanOne(row scanner) (*models.News, error) {
	var n models.News
	var wpID, relatedArtist sql.NullInt64
	var content, excerpt, coverURL, coverKey, soundcloud sql.NullString
	var publishedAt sql.NullTime

	err := row.Scan(&n.ID, &wpID, &n.Slug, &n.Title, &content, &excerpt, &coverURL, &coverKey,
		&soundcloud, &relatedArtist, &publishedAt, &n.CreatedAt, &n.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan news: %w", err)
	}

	n.WPID = wpID.Int64
	n.Content = content.String
	n.Excerpt = excerpt.String
	n.CoverImageURL = coverURL.String
	n.CoverImageKey = coverKey.String
	n.SoundcloudURL = soundcloud.String
	n.RelatedArtistWPID = relatedArtist.Int64
	n.PublishedAt = timePtr(publishedAt)
	return &n, nil
}
