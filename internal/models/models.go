// package models defines the data model for the label site import pipeline
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/dnbdoctor/labelsync/internal/shared"
)

// Model defines the base interface for all persistent models.
type Model interface {
	Key() string     // Key returns the natural key used for upserts
	Validate() error // Validate checks if the model's data is valid and returns an error if not
}

// Timestamps holds bookkeeping times shared by every persisted entity.
type Timestamps struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch sets UpdatedAt to now and fills CreatedAt when it is still zero.
func (t *Timestamps) Touch(now time.Time) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}

func invalid(entity, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", shared.ErrValidation, entity, fmt.Sprintf(format, args...))
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
