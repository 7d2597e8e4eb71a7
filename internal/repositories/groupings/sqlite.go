package groupings

import (
	"context"
	"fmt"

	"github.com/dkolesnik/kbvault/internal/common"
	"github.com/dkolesnik/kbvault/internal/dbx"
	"github.com/dkolesnik/kbvault/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a repository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, name string) (int64, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM groupings WHERE name = ?`, name).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to check grouping name: %w", err)
	}
	if n > 0 {
		return 0, fmt.Errorf("grouping %q: %w", name, common.ErrDuplicateName)
	}

	res, err := r.db.ExecContext(ctx, `INSERT INTO groupings (name) VALUES (?)`, name)
	if err != nil {
		return 0, fmt.Errorf("failed to insert grouping: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted grouping id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Grouping, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM groupings ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to select groupings: %w", err)
	}
	defer rows.Close()

	var result []models.Grouping
	for rows.Next() {
		var g models.Grouping
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM groupings WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete grouping %d: %w", id, err)
	}
	return nil
}
