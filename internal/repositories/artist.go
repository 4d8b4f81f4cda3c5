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

const artistColumns = `id, wp_id, slug, name, bio, image_url, image_key, facebook, instagram,
	soundcloud, spotify, website, created_at, updated_at`

// ArtistRepository persists roster entries keyed by slug.
type ArtistRepository struct {
	db *sql.DB
}

// NewArtistRepository creates a new ArtistRepository with the given database connection
func NewArtistRepository(db *sql.DB) *ArtistRepository {
	return &ArtistRepository{db: db}
}

// FindBySlug returns the artist with slug or [shared.ErrNotFound].
func (r *ArtistRepository) FindBySlug(ctx context.Context, slug string) (*models.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE slug = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, slug))
}

// UpsertBySlug inserts a new artist or updates the one sharing its slug.
//
// On update, empty optional fields keep the stored value. Reports whether a row was created.
func (r *ArtistRepository) UpsertBySlug(ctx context.Context, artist *models.Artist) (bool, error) {
	if err := artist.Validate(); err != nil {
		return false, err
	}

	existing, err := r.FindBySlug(ctx, artist.Slug)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return false, err
	}

	now := time.Now().UTC()
	if existing == nil {
		artist.ID = shared.GenerateID()
		artist.CreatedAt, artist.UpdatedAt = time.Time{}, time.Time{}
		artist.Touch(now)

		query := `INSERT INTO artists (` + artistColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		_, err := r.db.ExecContext(ctx, query,
			artist.ID, nullableInt(artist.WPID), artist.Slug, artist.Name, nullable(artist.Bio),
			nullable(artist.ImageURL), nullable(artist.ImageKey), nullable(artist.Facebook),
			nullable(artist.Instagram), nullable(artist.Soundcloud), nullable(artist.Spotify),
			nullable(artist.Website), artist.CreatedAt, artist.UpdatedAt,
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert artist %s: %w", artist.Slug, err)
		}
		return true, nil
	}

	query := `
		UPDATE artists
		SET wp_id = COALESCE(?, wp_id), name = ?, bio = COALESCE(?, bio),
			image_url = COALESCE(?, image_url), image_key = COALESCE(?, image_key),
			facebook = COALESCE(?, facebook), instagram = COALESCE(?, instagram),
			soundcloud = COALESCE(?, soundcloud), spotify = COALESCE(?, spotify),
			website = COALESCE(?, website), updated_at = ?
		WHERE id = ?
	`
	_, err = r.db.ExecContext(ctx, query,
		nullableInt(artist.WPID), artist.Name, nullable(artist.Bio),
		nullable(artist.ImageURL), nullable(artist.ImageKey), nullable(artist.Facebook),
		nullable(artist.Instagram), nullable(artist.Soundcloud), nullable(artist.Spotify),
		nullable(artist.Website), now, existing.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update artist %s: %w", artist.Slug, err)
	}

	artist.ID = existing.ID
	artist.CreatedAt = existing.CreatedAt
	artist.UpdatedAt = now
	return false, nil
}

// Count returns the number of artists.
func (r *ArtistRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM artists`)
}

func (r *ArtistRepository) scanOne(row scanner) (*models.Artist, error) {
	var a models.Artist
	var wpID sql.NullInt64
	var bio, imageURL, imageKey, facebook, instagram, soundcloud, spotify, website sql.NullString

	err := row.Scan(&a.ID, &wpID, &a.Slug, &a.Name, &bio, &imageURL, &imageKey,
		&facebook, &instagram, &soundcloud, &spotify, &website, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan artist: %w", err)
	}

	a.WPID = wpID.Int64
	a.Bio = bio.String
	a.ImageURL = imageURL.String
	a.ImageKey = imageKey.String
	a.Facebook = facebook.String
	a.Instagram = instagram.String
	a.Soundcloud = soundcloud.String
	a.Spotify = spotify.String
	a.Website = website.String
	return &a, nil
}
