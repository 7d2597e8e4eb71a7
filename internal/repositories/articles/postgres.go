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

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.EncryptedArticle) (int64, error) {
	query := `INSERT INTO articles (iv, title, authors, abstract, keywords, body, refs, level, grouping_ids, permissions, date_added, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		a.IV, a.Title, a.Authors, a.Abstract, a.Keywords, a.Body, a.References,
		a.Level, a.GroupingIDs, a.Permissions, a.DateAdded, a.Version).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert article: %w", err)
	}
	return id, nil
}

// CreateOrUpdate upserts by explicit id; restore depends on ids surviving.
// Callers must SyncIDSequence afterwards, since explicit-id inserts bypass
// the identity sequence.
func (r *PostgresRepository) CreateOrUpdate(ctx context.Context, a *models.EncryptedArticle) error {
	query := `INSERT INTO articles (id, iv, title, authors, abstract, keywords, body, refs, level, grouping_ids, permissions, date_added, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			iv = EXCLUDED.iv,
			title = EXCLUDED.title,
			authors = EXCLUDED.authors,
			abstract = EXCLUDED.abstract,
			keywords = EXCLUDED.keywords,
			body = EXCLUDED.body,
			refs = EXCLUDED.refs,
			level = EXCLUDED.level,
			grouping_ids = EXCLUDED.grouping_ids,
			permissions = EXCLUDED.permissions,
			date_added = EXCLUDED.date_added,
			version = EXCLUDED.version`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.IV, a.Title, a.Authors, a.Abstract, a.Keywords, a.Body, a.References,
		a.Level, a.GroupingIDs, a.Permissions, a.DateAdded, a.Version)
	if err != nil {
		return fmt.Errorf("failed to upsert article %d: %w", a.ID, err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, a *models.EncryptedArticle) error {
	query := `UPDATE articles SET iv = $1, title = $2, authors = $3, abstract = $4, keywords = $5, body = $6, refs = $7,
		level = $8, grouping_ids = $9, permissions = $10, date_added = $11, version = $12
		WHERE id = $13`
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

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.EncryptedArticle, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1`
	a, err := scanArticle(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("article %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select article %d: %w", id, err)
	}
	return a, nil
}

func (r *PostgresRepository) GetAll(ctx context.Context) ([]*models.EncryptedArticle, error) {
	query := `SELECT ` + articleColumns + ` FROM articles ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select articles: %w", err)
	}
	return collectArticles(rows)
}

func (r *PostgresRepository) GetByLevel(ctx context.Context, level string) ([]*models.EncryptedArticle, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE level = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, level)
	if err != nil {
		return nil, fmt.Errorf("failed to select articles by level: %w", err)
	}
	return collectArticles(rows)
}

func (r *PostgresRepository) GetByIDs(ctx context.Context, ids []int64) ([]*models.EncryptedArticle, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	placeholders := make([]string, len(ids))
	for i, id := range ids {
		args[i] = id
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id IN (` +
		strings.Join(placeholders, ", ") + `) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select articles by ids: %w", err)
	}
	return collectArticles(rows)
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete article %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM articles`); err != nil {
		return fmt.Errorf("failed to clear articles: %w", err)
	}
	return nil
}

// SyncIDSequence moves the identity sequence past the highest present id,
// so the next Create does not collide with a restored row.
func (r *PostgresRepository) SyncIDSequence(ctx context.Context) error {
	query := `SELECT setval(pg_get_serial_sequence('articles', 'id'), COALESCE((SELECT MAX(id) FROM articles), 0) + 1, false)`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to sync article id sequence: %w", err)
	}
	return nil
}
