// Package repomanager wires repository constructors for a database dialect
// and runs the embedded schema migrations. Repositories are handed out per
// DBTX so services can compose multi-repository operations inside one
// transaction.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dkolesnik/kbvault/internal/dbx"
	"github.com/dkolesnik/kbvault/internal/repositories/articles"
	"github.com/dkolesnik/kbvault/internal/repositories/groupings"
	"github.com/dkolesnik/kbvault/internal/repositories/groups"
)

type RepositoryManager interface {
	Articles(db dbx.DBTX) articles.Repository
	Groups(db dbx.DBTX) groups.Repository
	Groupings(db dbx.DBTX) groupings.Repository

	// RunMigrations applies the embedded migrations for this dialect.
	RunMigrations(ctx context.Context, db *sql.DB) error
}

// ForDriver maps a database/sql driver name to its manager.
func ForDriver(driver string) (RepositoryManager, error) {
	switch driver {
	case "sqlite":
		return SQLiteManager{}, nil
	case "pgx":
		return PostgresManager{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
