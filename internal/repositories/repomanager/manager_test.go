package repomanager

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func TestForDriver(t *testing.T) {
	m, err := ForDriver("sqlite")
	require.NoError(t, err)
	assert.IsType(t, SQLiteManager{}, m)

	m, err = ForDriver("pgx")
	require.NoError(t, err)
	assert.IsType(t, PostgresManager{}, m)

	_, err = ForDriver("oracle")
	require.Error(t, err)
}

func TestSQLiteManager_RunMigrations(t *testing.T) {
	db, err := sql.Open("sqlite", "file:repomanager_migrations?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, SQLiteManager{}.RunMigrations(context.Background(), db))

	for _, table := range []string{"users", "articles", "groupings", "special_groups", "group_members", "group_articles"} {
		var n int
		err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "table %s must exist after migrations", table)
	}
}
