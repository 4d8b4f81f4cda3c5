package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dnbdoctor/labelsync/internal/models"
)

const feedbackColumns = `id, token, wp_post_id, recipient_email, reviewer_email, rating, comment,
	downloaded, listened, track_token, raw, created_at`

// FeedbackRepository persists demo feedback entries.
type FeedbackRepository struct {
	db *sql.DB
}

// NewFeedbackRepository creates a new FeedbackRepository with the given database connection
func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// ReplaceForPost deletes the rows a previous import wrote for postID, identified by
// [models.ImportSentinelEmail], and inserts rows in their place, all in one transaction.
// Returns how many rows were deleted.
func (r *FeedbackRepository) ReplaceForPost(ctx context.Context, postID int64, rows []models.DemoFeedback) (int, error) {
	for i := range rows {
		if err := rows[i].Validate(); err != nil {
			return 0, err
		}
	}

	var deleted int
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM demo_feedback WHERE wp_post_id = ? AND recipient_email = ?`, postID, models.ImportSentinelEmail)
		if err != nil {
			return fmt.Errorf("failed to delete imported feedback for post %d: %w", postID, err)
		}
		n, _ := res.RowsAffected()
		deleted = int(n)

		query := `INSERT INTO demo_feedback (` + feedbackColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		for _, f := range rows {
			var rating any
			if f.Rating != nil {
				rating = *f.Rating
			}
			if _, err := tx.ExecContext(ctx, query,
				f.ID, f.Token, f.WPPostID, f.RecipientEmail, nullable(f.ReviewerEmail), rating,
				nullable(f.Comment), f.Downloaded, f.Listened, nullable(f.TrackToken), nullable(f.Raw),
				f.CreatedAt.UTC(),
			); err != nil {
				return fmt.Errorf("failed to insert feedback %s: %w", f.Token, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// ListByPost returns a post's feedback in insertion order.
func (r *FeedbackRepository) ListByPost(ctx context.Context, postID int64) ([]models.DemoFeedback, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+feedbackColumns+` FROM demo_feedback WHERE wp_post_id = ? ORDER BY created_at, token`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var out []models.DemoFeedback
	for rows.Next() {
		var f models.DemoFeedback
		var reviewer, comment, trackToken, raw sql.NullString
		var rating sql.NullFloat64

		if err := rows.Scan(&f.ID, &f.Token, &f.WPPostID, &f.RecipientEmail, &reviewer, &rating, &comment,
			&f.Downloaded, &f.Listened, &trackToken, &raw, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}

		f.ReviewerEmail = reviewer.String
		f.Comment = comment.String
		f.TrackToken = trackToken.String
		f.Raw = raw.String
		if rating.Valid {
			v := rating.Float64
			f.Rating = &v
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Count returns the number of feedback rows.
func (r *FeedbackRepository) Count(ctx context.Context) (int, error) {
	return count(ctx, r.db, `SELECT COUNT(*) FROM demo_feedback`)
}
