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

const subscriberColumns = `id, email, name, status, source, tags, category_id, notes,
	email_count, last_email_sent, created_at, updated_at`

// SubscriberRepository persists newsletter subscribers keyed by email.
type SubscriberRepository struct {
	db *sql.DB
}

// NewSubscriberRepository creates a new SubscriberRepository with the given database connection
func NewSubscriberRepository(db *sql.DB) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

// FindByEmail returns the subscriber with email, ignoring case, or [shared.ErrNotFound].
func (r *SubscriberRepository) FindByEmail(ctx context.Context, email string) (*models.Subscriber, error) {
	return findSubscriberByEmail(ctx, r.db, email)
}

func findSubscriberByEmail(ctx context.Context, db DBTX, email string) (*models.Subscriber, error) {
	query := `SELECT ` + subscriberColumns + ` FROM subscribers WHERE lower(email) = lower(?) ORDER BY created_at LIMIT 1`
	return scanSubscriber(db.QueryRowContext(ctx, query, strings.TrimSpace(email)))
}

// Create inserts a new subscriber with a generated ID.
func (r *SubscriberRepository) Create(ctx context.Context, s *models.Subscriber) error {
	if err := s.Validate(); err != nil {
		return err
	}

	tags, err := encodeTags(s.Tags)
	if err != nil {
		return err
	}

	s.ID = shared.GenerateID()
	s.Touch(time.Now().UTC())

	query := `INSERT INTO subscribers (` + subscriberColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		s.ID, strings.TrimSpace(s.Email), nullable(s.Name), s.Status, nullable(s.Source), tags,
		nullable(s.CategoryID), nullable(s.Notes), s.EmailCount, nullableTime(s.LastEmailSent),
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert subscriber %s: %w", s.Email, err)
	}
	return nil
}

// UpsertByEmail creates the subscriber or merges s into the one sharing its email.
//
// On update, tags are unioned and empty fields keep the stored value. Reports whether a row was created.
func (r *SubscriberRepository) UpsertByEmail(ctx context.Context, s *models.Subscriber) (bool, error) {
	existing, err := r.FindByEmail(ctx, s.Email)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return false, err
	}
	if existing == nil {
		if err := r.Create(ctx, s); err != nil {
			return false, err
		}
		return true, nil
	}

	if err := s.Validate(); err != nil {
		return false, err
	}

	s.Tags = models.UnionTags(existing.Tags, s.Tags)
	tags, err := encodeTags(s.Tags)
	if err != nil {
		return false, err
	}

	now := time.Now().UTC()
	query := `
		UPDATE subscribers
		SET name = COALESCE(?, name), status = ?, source = COALESCE(?, source), tags = ?,
			category_id = COALESCE(?, category_id), notes = COALESCE(?, notes), updated_at = ?
		WHERE id = ?
	`
	_, err = r.db.ExecContext(ctx, query,
		nullable(s.Name), s.Status, nullable(s.Source), tags, nullable(s.CategoryID), nullable(s.Notes),
		now, existing.ID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update subscriber %s: %w", s.Email, err)
	}

	s.ID = existing.ID
	s.CreatedAt = existing.CreatedAt
	s.UpdatedAt = now
	return false, nil
}

// List returns every subscriber, oldest first.
func (r *SubscriberRepository) List(ctx context.Context) ([]models.Subscriber, error) {
	return r.list(ctx, `SELECT `+subscriberColumns+` FROM subscribers ORDER BY created_at, id`)
}

// ListByCategory returns the subscribers in a category, oldest first.
func (r *SubscriberRepository) ListByCategory(ctx context.Context, categoryID string) ([]models.Subscriber, error) {
	return r.list(ctx, `SELECT `+subscriberColumns+` FROM subscribers WHERE category_id = ? ORDER BY created_at, id`, categoryID)
}

func (r *SubscriberRepository) list(ctx context.Context, query string, args ...any) ([]models.Subscriber, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscribers: %w", err)
	}
	defer rows.Close()

	var subs []models.Subscriber
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *s)
	}
	return subs, rows.Err()
}

// Count returns the number of subscribers.
func (r *SubscriberRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM subscribers`)
}

// MergeResult describes one applied cluster merge.
type MergeResult struct {
	Primary           models.Subscriber
	Deleted           int
	EmailLogsMoved    int
	InfluencersMerged int
}

// MergeCluster folds every duplicate of c into its primary inside one transaction.
//
// Email logs are re-pointed to the primary, influencers keyed by a duplicate's email are merged
// into the primary's, duplicates are deleted, and finally the primary is rewritten with the merged
// fields and its target email. Any failure rolls the whole cluster back.
func (r *SubscriberRepository) MergeCluster(ctx context.Context, c dedup.Cluster, now time.Time) (*MergeResult, error) {
	result := &MergeResult{Primary: c.Primary}
	primary := &result.Primary
	target := c.TargetEmail()

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if !strings.EqualFold(primary.Email, target) {
			merged, err := mergeInfluencer(ctx, tx, primary.Email, target, now)
			if err != nil {
				return err
			}
			result.InfluencersMerged += merged
		}

		for _, dup := range c.Duplicates {
			moved, err := reassignEmailLogs(ctx, tx, dup.ID, primary.ID)
			if err != nil {
				return err
			}
			result.EmailLogsMoved += moved

			merged, err := mergeInfluencer(ctx, tx, dup.Email, target, now)
			if err != nil {
				return err
			}
			result.InfluencersMerged += merged

			if _, err := tx.ExecContext(ctx, `DELETE FROM subscribers WHERE id = ?`, dup.ID); err != nil {
				return fmt.Errorf("failed to delete duplicate subscriber %s: %w", dup.ID, err)
			}
			result.Deleted++

			dedup.MergeSubscriber(primary, dup, now)
		}

		primary.Email = target
		primary.UpdatedAt = now.UTC()
		tags, err := encodeTags(primary.Tags)
		if err != nil {
			return err
		}

		query := `
			UPDATE subscribers
			SET email = ?, name = ?, tags = ?, category_id = ?, notes = ?, email_count = ?,
				last_email_sent = ?, updated_at = ?
			WHERE id = ?
		`
		res, err := tx.ExecContext(ctx, query,
			primary.Email, nullable(primary.Name), tags, nullable(primary.CategoryID), nullable(primary.Notes),
			primary.EmailCount, nullableTime(primary.LastEmailSent), primary.UpdatedAt, primary.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update primary subscriber %s: %w", primary.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: primary subscriber %s", shared.ErrNotFound, primary.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to merge cluster %s: %w", c.Key, err)
	}

	return result, nil
}

// mergeInfluencer moves the influencer keyed by fromEmail onto toEmail, merging with any influencer
// already there. Returns 1 when an influencer was moved.
func mergeInfluencer(ctx context.Context, tx DBTX, fromEmail, toEmail string, now time.Time) (int, error) {
	from := strings.ToLower(strings.TrimSpace(fromEmail))
	to := strings.ToLower(strings.TrimSpace(toEmail))
	if from == to {
		return 0, nil
	}

	dup, err := findInfluencerByEmail(ctx, tx, from)
	if errors.Is(err, shared.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	existing, err := findInfluencerByEmail(ctx, tx, to)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return 0, err
	}

	merged := dedup.MergeInfluencer(existing, *dup, to)
	merged.UpdatedAt = now.UTC()

	if existing != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM influencers WHERE id = ?`, dup.ID); err != nil {
			return 0, fmt.Errorf("failed to delete duplicate influencer %s: %w", dup.ID, err)
		}
	}
	if err := updateInfluencer(ctx, tx, &merged); err != nil {
		return 0, err
	}
	return 1, nil
}

func scanSubscriber(row scanner) (*models.Subscriber, error) {
	var s models.Subscriber
	var name, source, categoryID, notes sql.NullString
	var tags string
	var lastEmailSent sql.NullTime

	err := row.Scan(&s.ID, &s.Email, &name, &s.Status, &source, &tags, &categoryID, &notes,
		&s.EmailCount, &lastEmailSent, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan subscriber: %w", err)
	}

	s.Name = name.String
	s.Source = source.String
	s.Tags = decodeTags(tags)
	s.CategoryID = categoryID.String
	s.Notes = notes.String
	s.LastEmailSent = timePtr(lastEmailSent)
	return &s, nil
}
