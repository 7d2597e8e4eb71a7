// Package groupings provides the grouping-identifier catalog: name-only
// rows used to populate tag selection. The catalog is independent of
// articles and never relationally enforced against their free-text tags.
package groupings

import (
	"context"

	"github.com/dkolesnik/kbvault/internal/models"
)

type Repository interface {
	// Create inserts a catalog entry; a taken name yields ErrDuplicateName.
	Create(ctx context.Context, name string) (int64, error)
	List(ctx context.Context) ([]models.Grouping, error)
	Delete(ctx context.Context, id int64) error
}
