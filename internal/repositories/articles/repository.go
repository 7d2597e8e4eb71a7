// Package articles provides SQL-backed repositories for encrypted article
// rows. Repositories deal in ciphertext only; encryption and decryption
// happen in the service layer above.
package articles

import (
	"context"
	"database/sql"

	"github.com/dkolesnik/kbvault/internal/models"
)

type Repository interface {
	// Create inserts a new row and returns the store-assigned id.
	Create(ctx context.Context, a *models.EncryptedArticle) (int64, error)

	// CreateOrUpdate upserts a row under its explicit id, preserving it.
	// Used by restore, where original ids must survive the round trip.
	CreateOrUpdate(ctx context.Context, a *models.EncryptedArticle) error

	// Update rewrites every column of an existing row.
	Update(ctx context.Context, a *models.EncryptedArticle) error

	GetByID(ctx context.Context, id int64) (*models.EncryptedArticle, error)
	GetAll(ctx context.Context) ([]*models.EncryptedArticle, error)
	GetByLevel(ctx context.Context, level string) ([]*models.EncryptedArticle, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*models.EncryptedArticle, error)

	// Delete removes a row and reports whether it existed.
	Delete(ctx context.Context, id int64) (bool, error)
	DeleteAll(ctx context.Context) error

	// SyncIDSequence realigns the id generator after explicit-id inserts.
	// A no-op where the engine keeps its own counter current.
	SyncIDSequence(ctx context.Context) error
}

// articleColumns is the canonical select list; scanArticle and the
// per-dialect queries must stay in this order.
const articleColumns = `id, iv, title, authors, abstract, keywords, body, refs, level, grouping_ids, permissions, date_added, version`

func scanArticle(row interface{ Scan(...any) error }) (*models.EncryptedArticle, error) {
	var a models.EncryptedArticle
	err := row.Scan(
		&a.ID, &a.IV, &a.Title, &a.Authors, &a.Abstract, &a.Keywords, &a.Body, &a.References,
		&a.Level, &a.GroupingIDs, &a.Permissions, &a.DateAdded, &a.Version,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func collectArticles(rows *sql.Rows) ([]*models.EncryptedArticle, error) {
	defer rows.Close()

	var result []*models.EncryptedArticle
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
