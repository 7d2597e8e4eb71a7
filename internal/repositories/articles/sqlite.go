package articles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

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

func (r *SQLiteRepository) Create(ctx context.Context, a *models.EncryptedArticle) (int64, error) {
	query := `INSERT INTO articles (iv, title, authors, abstract, keywords, body, refs, level, grouping_ids, permissions, date_added, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		a.IV, a.Title, a.Authors, a.Abstract, a.Keywords, a.Body, a.References,
		a.Level, a.GroupingIDs, a.Permissions, a.DateAdded, a.Version)
	if err != nil {
		return 0, fmt.Errorf("failed to insert article: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted article id: %w", err)
	}
	return id, nil
}

// CreateOrUpdate upserts by explicit id; restore depends on ids surviving.
func (r *SQLiteRepository) CreateOrUpdate(ctx context.Context, a *models.EncryptedArticle) error {
	query := `INSERT INTO articles (id, iv, title, authors, abstract, keywords, body, refs, level, grouping_ids, permissions, date_added, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			iv = excluded.iv,
			title = excluded.title,
			authors = excluded.authors,
			abstract = excluded.abstract,
			keywords = excluded.keywords,
			body = excluded.body,
			refs = excluded.refs,
			level = excluded.level,
			grouping_ids = excluded.grouping_ids,
			permissions = excluded.permissions,
			date_added = excluded.date_added,
			version = excluded.version`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.IV, a.Title, a.Authors, a.Abstract, a.Keywords, a.Body, a.References,
		a.Level, a.GroupingIDs, a.Permissions, a.DateAdded, a.Version)
	if err != nil {
		return fmt.Errorf("failed to upsert article %d: %w", a.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, a *models.EncryptedArticle) error {
	query := `UPDATE articles SET iv = ?, title = ?, authors = ?, abstract = ?, keywords = ?, body = ?, refs = ?,
		level = ?, grouping_ids = ?, permissions = ?, date_added = ?, version = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		a.IV, a.Title, a.Authors, a.Abstract, a.Keywords, a.Body, a.References,
		a.Level, a.GroupingIDs, a.Permissions, a.DateAdded, a.Version, a.ID)
	if err != nil {
		return fmt.Errorf("failed to update article %d: %w", a.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("article %d: %w", a.ID, common.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*models.EncryptedArticle, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = ?`
	a, err := scanArticle(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("article %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select article %d: %w", id, err)
	}
	return a, nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]*models.EncryptedArticle, error) {
	query := `SELECT ` + articleColumns + ` FROM articles ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select articles: %w", err)
	}
	return collectArticles(rows)
}

func (r *SQLiteRepository) GetByLevel(ctx context.Context, level string) ([]*models.EncryptedArticle, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE level = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, level)
	if err != nil {
		return nil, fmt.Errorf("failed to select articles by level: %w", err)
	}
	return collectArticles(rows)
}

func (r *SQLiteRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.EncryptedArticle, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id IN (?` +
		strings.Repeat(", ?", len(ids)-1) + `) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select articles by ids: %w", err)
	}
	return collectArticles(rows)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete article %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM articles`); err != nil {
		return fmt.Errorf("failed to clear articles: %w", err)
	}
	return nil
}

// SyncIDSequence is a no-op: SQLite keeps sqlite_sequence current even for
// explicit-id inserts.
func (r *SQLiteRepository) SyncIDSequence(ctx context.Context) error {
	return nil
}
