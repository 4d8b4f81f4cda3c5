package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dnbdoctor/labelsync/internal/models"
	"github.com/dnbdoctor/labelsync/internal/shared"
)

const importRunColumns = `id, sequence, task, status, dry_run, total, imported, skipped, failed,
	error_message, started_at, completed_at`

// ImportRunRepository journals task executions.
type ImportRunRepository struct {
	db *sql.DB
}

// NewImportRunRepository creates a new ImportRunRepository with the given database connection
func NewImportRunRepository(db *sql.DB) *ImportRunRepository {
	return &ImportRunRepository{db: db}
}

// Create inserts a run with a generated ID and the next sequence number.
func (r *ImportRunRepository) Create(ctx context.Context, run *models.ImportRun) error {
	if err := run.Validate(); err != nil {
		return err
	}

	sequence, err := NextSequence(ctx, r.db, "import_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	run.ID = shared.GenerateID()
	run.Sequence = sequence

	query := `INSERT INTO import_runs (` + importRunColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		run.ID, run.Sequence, run.Task, run.Status, run.DryRun, run.Total, run.Imported, run.Skipped,
		run.Failed, nullable(run.ErrorMessage), run.StartedAt, nullableTime(run.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert import run: %w", err)
	}
	return nil
}

// Update writes the run's status and counters.
func (r *ImportRunRepository) Update(ctx context.Context, run *models.ImportRun) error {
	if err := run.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE import_runs
		SET status = ?, total = ?, imported = ?, skipped = ?, failed = ?, error_message = ?, completed_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		run.Status, run.Total, run.Imported, run.Skipped, run.Failed, nullable(run.ErrorMessage),
		nullableTime(run.CompletedAt), run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update import run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: import run %s", shared.ErrNotFound, run.ID)
	}
	return nil
}

// Get returns the run with id or [shared.ErrNotFound].
func (r *ImportRunRepository) Get(ctx context.Context, id string) (*models.ImportRun, error) {
	query := `SELECT ` + importRunColumns + ` FROM import_runs WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// List returns the most recent runs, newest first, optionally filtered by task.
func (r *ImportRunRepository) List(ctx context.Context, task string, limit int) ([]*models.ImportRun, error) {
	query := `SELECT ` + importRunColumns + ` FROM import_runs`
	args := []any{}

	if task != "" {
		query += " WHERE task = ?"
		args = append(args, task)
	}

	query += " ORDER BY sequence DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query import runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.ImportRun
	for rows.Next() {
		run, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *ImportRunRepository) scanOne(row scanner) (*models.ImportRun, error) {
	var (
		run          models.ImportRun
		errorMessage sql.NullString
		completedAt  sql.NullTime
	)

	err := row.Scan(
		&run.ID, &run.Sequence, &run.Task, &run.Status, &run.DryRun, &run.Total, &run.Imported,
		&run.Skipped, &run.Failed, &errorMessage, &run.StartedAt, &completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan import run: %w", err)
	}

	run.ErrorMessage = errorMessage.String
	run.CompletedAt = timePtr(completedAt)
	return &run, nil
}
