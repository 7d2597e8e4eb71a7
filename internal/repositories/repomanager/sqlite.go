package repomanager

import (
	"context"
	"database/sql"

	"github.com/dkolesnik/kbvault/internal/dbx"
	"github.com/dkolesnik/kbvault/internal/migrations"
	"github.com/dkolesnik/kbvault/internal/repositories/articles"
	"github.com/dkolesnik/kbvault/internal/repositories/groupings"
	"github.com/dkolesnik/kbvault/internal/repositories/groups"
	"github.com/pressly/goose/v3"
)

// SQLiteManager builds SQLite-backed repositories (modernc driver).
type SQLiteManager struct{}

func (SQLiteManager) Articles(db dbx.DBTX) articles.Repository {
	return articles.NewSQLiteRepository(db)
}

func (SQLiteManager) Groups(db dbx.DBTX) groups.Repository {
	return groups.NewSQLiteRepository(db)
}

func (SQLiteManager) Groupings(db dbx.DBTX) groupings.Repository {
	return groupings.NewSQLiteRepository(db)
}

func (SQLiteManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.SQLite)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "sqlite")
}
