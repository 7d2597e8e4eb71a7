// Package articles implements the encrypted article store: per-field
// encryption on write, decryption on read, plaintext search and level
// filtering, and backup/restore of the whole relation.
//
// Every write derives the record's IV from its current title and encrypts
// all six content fields under it; an update therefore always rewrites the
// whole record, and editing the title silently re-encrypts everything.
// Search and the read paths decrypt row by row — linear in store size,
// acceptable while the knowledge base stays small.
package articles

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/dkolesnik/kbvault/internal/backup"
	"github.com/dkolesnik/kbvault/internal/common"
	"github.com/dkolesnik/kbvault/internal/cryptox"
	"github.com/dkolesnik/kbvault/internal/dbx"
	"github.com/dkolesnik/kbvault/internal/logging"
	"github.com/dkolesnik/kbvault/internal/models"
	"github.com/dkolesnik/kbvault/internal/repositories/repomanager"
)

type Service struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	cipher *cryptox.Cipher
	log    logging.Logger
}

func NewService(db *sql.DB, repos repomanager.RepositoryManager, cipher *cryptox.Cipher, log logging.Logger) *Service {
	return &Service{db: db, repos: repos, cipher: cipher, log: log}
}

// Create encrypts all six content fields under an IV derived from the
// title and persists the row. The assigned id is stored back into a and
// returned.
func (s *Service) Create(ctx context.Context, a *models.Article) (int64, error) {
	enc, err := s.seal(a)
	if err != nil {
		return 0, err
	}
	id, err := s.repos.Articles(s.db).Create(ctx, enc)
	if err != nil {
		return 0, err
	}
	a.ID = id
	return id, nil
}

// Update re-derives the IV from the current title and re-encrypts every
// content field, even when only metadata changed.
func (s *Service) Update(ctx context.Context, a *models.Article) error {
	enc, err := s.seal(a)
	if err != nil {
		return err
	}
	return s.repos.Articles(s.db).Update(ctx, enc)
}

// GetByID returns the fully decrypted article.
func (s *Service) GetByID(ctx context.Context, id int64) (*models.Article, error) {
	enc, err := s.repos.Articles(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.open(enc)
}

// GetAll returns every article decrypted, in ascending id order.
func (s *Service) GetAll(ctx context.Context) ([]*models.Article, error) {
	rows, err := s.repos.Articles(s.db).GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return s.openRows(rows)
}

// Search decrypts every row and returns those whose title, authors or
// keywords contain query as a case-insensitive substring.
func (s *Service) Search(ctx context.Context, query string) ([]*models.Article, error) {
	all, err := s.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	var result []*models.Article
	for _, a := range all {
		if strings.Contains(strings.ToLower(a.Title), q) ||
			strings.Contains(strings.ToLower(a.Authors), q) ||
			strings.Contains(strings.ToLower(a.Keywords), q) {
			result = append(result, a)
		}
	}
	return result, nil
}

// FilterByLevel returns articles whose clear-text level matches exactly.
func (s *Service) FilterByLevel(ctx context.Context, level models.Level) ([]*models.Article, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("%w: unknown level %q", common.ErrValidation, level)
	}
	rows, err := s.repos.Articles(s.db).GetByLevel(ctx, string(level))
	if err != nil {
		return nil, err
	}
	return s.openRows(rows)
}

// Delete removes the article. A missing id is reported in the log and
// otherwise ignored.
func (s *Service) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repos.Articles(s.db).Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		s.log.Warn(ctx, "delete of missing article", "id", id)
	}
	return nil
}

// Backup writes every stored row to path in backup block format,
// overwriting the file. Ciphertext is exported verbatim, never decrypted.
func (s *Service) Backup(ctx context.Context, path string) error {
	rows, err := s.repos.Articles(s.db).GetAll(ctx)
	if err != nil {
		return err
	}
	if err := backup.WriteFile(path, rows); err != nil {
		return err
	}
	s.log.Info(ctx, "backup written", "path", path, "rows", len(rows))
	return nil
}

// BackupSubset writes only the rows whose ids are in ids; used for
// group-scoped exports.
func (s *Service) BackupSubset(ctx context.Context, path string, ids []int64) error {
	rows, err := s.repos.Articles(s.db).GetByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if err := backup.WriteFile(path, rows); err != nil {
		return err
	}
	s.log.Info(ctx, "subset backup written", "path", path, "rows", len(rows))
	return nil
}

// Restore loads backup blocks from path. With merge false the store is
// cleared first; with merge true rows are upserted by id, overwriting any
// existing row with the same id. Original ids are preserved either way.
// A malformed file fails the whole restore; nothing is applied.
func (s *Service) Restore(ctx context.Context, path string, merge bool) error {
	rows, err := backup.ReadFile(path)
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Articles(tx)
		if !merge {
			if err := repo.DeleteAll(ctx); err != nil {
				return err
			}
		}
		for _, r := range rows {
			if err := repo.CreateOrUpdate(ctx, r); err != nil {
				return err
			}
		}
		return repo.SyncIDSequence(ctx)
	})
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	s.log.Info(ctx, "restore complete", "path", path, "rows", len(rows), "merge", merge)
	return nil
}

// BackupToBucket writes a backup to path and uploads it to the target
// bucket, returning the object key.
func (s *Service) BackupToBucket(ctx context.Context, target *backup.S3Target, path string) (string, error) {
	if err := s.Backup(ctx, path); err != nil {
		return "", err
	}
	key := backup.ObjectKey(time.Now())
	if err := target.Upload(ctx, path, key); err != nil {
		return "", err
	}
	s.log.Info(ctx, "backup uploaded", "key", key)
	return key, nil
}

// seal validates a and produces its encrypted storage row.
func (s *Service) seal(a *models.Article) (*models.EncryptedArticle, error) {
	if !a.Level.Valid() {
		return nil, fmt.Errorf("%w: unknown level %q", common.ErrValidation, a.Level)
	}
	if !models.ValidPermissions(a.Permissions) {
		return nil, fmt.Errorf("%w: unknown permission in %v", common.ErrValidation, a.Permissions)
	}

	iv, err := cryptox.DeriveIV(a.Title)
	if err != nil {
		return nil, err
	}

	enc := &models.EncryptedArticle{
		ID:          a.ID,
		IV:          base64.StdEncoding.EncodeToString(iv),
		Level:       string(a.Level),
		GroupingIDs: models.JoinList(a.GroupingIDs),
		Permissions: models.JoinList(a.Permissions),
		DateAdded:   a.DateAdded.Format(models.DateFormat),
		Version:     a.Version,
	}

	for _, f := range []struct {
		src string
		dst *string
	}{
		{a.Title, &enc.Title},
		{a.Authors, &enc.Authors},
		{a.Abstract, &enc.Abstract},
		{a.Keywords, &enc.Keywords},
		{a.Body, &enc.Body},
		{a.References, &enc.References},
	} {
		ct, err := s.cipher.Encrypt([]byte(f.src), iv)
		if err != nil {
			return nil, err
		}
		*f.dst = base64.StdEncoding.EncodeToString(ct)
	}

	return enc, nil
}

// open decrypts a storage row into the caller-facing article.
func (s *Service) open(enc *models.EncryptedArticle) (*models.Article, error) {
	iv, err := base64.StdEncoding.DecodeString(enc.IV)
	if err != nil {
		return nil, fmt.Errorf("%w: bad stored IV for article %d: %v", common.ErrCrypto, enc.ID, err)
	}

	a := &models.Article{
		ID:          enc.ID,
		Level:       models.Level(enc.Level),
		GroupingIDs: models.SplitList(enc.GroupingIDs),
		Permissions: models.SplitList(enc.Permissions),
		Version:     enc.Version,
	}
	if enc.DateAdded != "" {
		d, err := time.Parse(models.DateFormat, enc.DateAdded)
		if err != nil {
			return nil, fmt.Errorf("%w: bad stored date %q for article %d", common.ErrValidation, enc.DateAdded, enc.ID)
		}
		a.DateAdded = d
	}

	for _, f := range []struct {
		src string
		dst *string
	}{
		{enc.Title, &a.Title},
		{enc.Authors, &a.Authors},
		{enc.Abstract, &a.Abstract},
		{enc.Keywords, &a.Keywords},
		{enc.Body, &a.Body},
		{enc.References, &a.References},
	} {
		ct, err := base64.StdEncoding.DecodeString(f.src)
		if err != nil {
			return nil, fmt.Errorf("%w: bad stored ciphertext for article %d: %v", common.ErrCrypto, enc.ID, err)
		}
		pt, err := s.cipher.Decrypt(ct, iv)
		if err != nil {
			return nil, fmt.Errorf("article %d: %w", enc.ID, err)
		}
		*f.dst = string(pt)
	}

	return a, nil
}

func (s *Service) openRows(rows []*models.EncryptedArticle) ([]*models.Article, error) {
	var result []*models.Article
	for _, enc := range rows {
		a, err := s.open(enc)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, nil
}
