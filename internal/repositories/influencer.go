package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dnbdoctor/labelsync/internal/dedup"
	"github.com/dnbdoctor/labelsync/internal/models"
	"github.com/dnbdoctor/labelsync/internal/shared"
)

const influencerColumns = `id, email, name, tags, category_id, created_at, updated_at`

// InfluencerRepository persists promoter contacts keyed by lowercased email.
type InfluencerRepository struct {
	db *sql.DB
}

// NewInfluencerRepository creates a new InfluencerRepository with the given database connection
func NewInfluencerRepository(db *sql.DB) *InfluencerRepository {
	return &InfluencerRepository{db: db}
}

// FindByEmail returns the influencer for email or [shared.ErrNotFound].
func (r *InfluencerRepository) FindByEmail(ctx context.Context, email string) (*models.Influencer, error) {
	return findInfluencerByEmail(ctx, r.db, email)
}

// Upsert creates the influencer or merges inf into the existing one: tags are unioned and an
// existing name is kept. Reports whether a row was created.
func (r *InfluencerRepository) Upsert(ctx context.Context, inf *models.Influencer) (bool, error) {
	inf.Email = strings.ToLower(strings.TrimSpace(inf.Email))
	if err := inf.Validate(); err != nil {
		return false, err
	}

	existing, err := r.FindByEmail(ctx, inf.Email)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return false, err
	}

	now := time.Now().UTC()
	if existing != nil {
		merged := dedup.MergeInfluencer(existing, *inf, inf.Email)
		merged.UpdatedAt = now
		if err := updateInfluencer(ctx, r.db, &merged); err != nil {
			return false, err
		}
		*inf = merged
		return false, nil
	}

	tags, err := encodeTags(models.UnionTags(inf.Tags))
	if err != nil {
		return false, err
	}

	inf.ID = shared.GenerateID()
	inf.Touch(now)

	query := `INSERT INTO influencers (` + influencerColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query,
		inf.ID, inf.Email, nullable(inf.Name), tags, nullable(inf.CategoryID), inf.CreatedAt, inf.UpdatedAt,
	); err != nil {
		return false, fmt.Errorf("failed to insert influencer %s: %w", inf.Email, err)
	}
	return true, nil
}

// Count returns the number of influencers.
func (r *InfluencerRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM influencers`)
}

func findInfluencerByEmail(ctx context.Context, db DBTX, email string) (*models.Influencer, error) {
	query := `SELECT ` + influencerColumns + ` FROM influencers WHERE email = ?`
	return scanInfluencer(db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
}

func updateInfluencer(ctx context.Context, db DBTX, inf *models.Influencer) error {
	tags, err := encodeTags(inf.Tags)
	if err != nil {
		return err
	}

	query := `UPDATE influencers SET email = ?, name = ?, tags = ?, category_id = ?, updated_at = ? WHERE id = ?`
	if _, err := db.ExecContext(ctx, query,
		inf.Email, nullable(inf.Name), tags, nullable(inf.CategoryID), inf.UpdatedAt, inf.ID,
	); err != nil {
		return fmt.Errorf("failed to update influencer %s: %w", inf.ID, err)
	}
	return nil
}

func scanInfluencer(row scanner) (*models.Influencer, error) {
	var inf models.Influencer
	var name, categoryID sql.NullString
	var tags string

	err := row.Scan(&inf.ID, &inf.Email, &name, &tags, &categoryID, &inf.CreatedAt, &inf.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan influencer: %w", err)
	}

	inf.Name = name.String
	inf.Tags = decodeTags(tags)
	inf.CategoryID = categoryID.String
	return &inf, nil
}
