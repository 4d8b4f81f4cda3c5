package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dnbdoctor/labelsync/internal/models"
	"github.com/dnbdoctor/labelsync/internal/shared"
)

const categoryColumns = `id, name, color, description, created_at, updated_at`

// CategoryRepository persists subscriber categories keyed by name.
type CategoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new CategoryRepository with the given database connection
func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// FindByName returns the category named name, ignoring case, or [shared.ErrNotFound].
func (r *CategoryRepository) FindByName(ctx context.Context, name string) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE lower(name) = lower(?)`
	return r.scanOne(r.db.QueryRowContext(ctx, query, strings.TrimSpace(name)))
}

// FindOrCreate returns the category named c.Name, creating it from c when missing.
// Reports whether a row was created.
func (r *CategoryRepository) FindOrCreate(ctx context.Context, c *models.Category) (*models.Category, bool, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return nil, false, err
	}

	existing, err := r.FindByName(ctx, c.Name)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}

	c.ID = shared.GenerateID()
	c.Touch(time.Now().UTC())

	query := `INSERT INTO categories (` + categoryColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query,
		c.ID, c.Name, nullable(c.Color), nullable(c.Description), c.CreatedAt, c.UpdatedAt,
	); err != nil {
		return nil, false, fmt.Errorf("failed to insert category %s: %w", c.Name, err)
	}

	return c, true, nil
}

func (r *CategoryRepository) scanOne(row scanner) (*models.Category, error) {
	var c models.Category
	var color, description sql.NullString

	err := row.Scan(&c.ID, &c.Name, &color, &description, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}

	c.Color = color.String
	c.Description = description.String
	return &c, nil
}
