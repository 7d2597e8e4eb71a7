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

// PostgresManager builds PostgreSQL-backed repositories (pgx stdlib driver).
type PostgresManager struct{}

func (PostgresManager) Articles(db dbx.DBTX) articles.Repository {
	return articles.NewPostgresRepository(db)
}

func (PostgresManager) Groups(db dbx.DBTX) groups.Repository {
	return groups.NewPostgresRepository(db)
}

func (PostgresManager) Groupings(db dbx.DBTX) groupings.Repository {
	return groupings.NewPostgresRepository(db)
}

func (PostgresManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Postgres)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "postgres")
}
