// Package kbvault is an embeddable help-desk knowledge base core. Article
// text fields are encrypted at rest with AES-CBC under a single symmetric
// key; access control is tier-based through special groups. The package
// wires storage, crypto and services together; callers interact with the
// Vault and its services only.
package kbvault

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dkolesnik/kbvault/internal/articles"
	"github.com/dkolesnik/kbvault/internal/backup"
	"github.com/dkolesnik/kbvault/internal/config"
	"github.com/dkolesnik/kbvault/internal/cryptox"
	"github.com/dkolesnik/kbvault/internal/groups"
	"github.com/dkolesnik/kbvault/internal/logging"
	groupingrepo "github.com/dkolesnik/kbvault/internal/repositories/groupings"
	"github.com/dkolesnik/kbvault/internal/repositories/repomanager"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Vault is the assembled knowledge base: an open database handle plus the
// article, group and grouping-catalog services bound to it.
type Vault struct {
	db  *sql.DB
	cfg *config.Config
	log logging.Logger

	Articles  *articles.Service
	Groups    *groups.Service
	Groupings groupingrepo.Repository
}

// Open connects to the configured database, applies migrations and builds
// the services. The article key comes from the configured passphrase via
// argon2id, or falls back to the embedded development key when no
// passphrase is set.
func Open(ctx context.Context, cfg *config.Config, log logging.Logger) (*Vault, error) {
	if log == nil {
		log = logging.Nop()
	}

	manager, err := repomanager.ForDriver(cfg.DatabaseDriver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := manager.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	cipher, err := cryptox.NewCipher(keyProvider(cfg))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	articleSvc := articles.NewService(db, manager, cipher, log)
	v := &Vault{
		db:        db,
		cfg:       cfg,
		log:       log,
		Articles:  articleSvc,
		Groups:    groups.NewService(db, manager, articleSvc, log),
		Groupings: manager.Groupings(db),
	}
	log.Info(ctx, "vault opened", "driver", cfg.DatabaseDriver)
	return v, nil
}

func keyProvider(cfg *config.Config) cryptox.KeyProvider {
	if cfg.EncryptionPassphrase != "" {
		return cryptox.NewPassphraseKeyProvider(cfg.EncryptionPassphrase, cfg.EncryptionSalt)
	}
	return cryptox.NewStaticKeyProvider(cryptox.DefaultDevKey)
}

// BackupToBucket writes a full backup to path and uploads it to the
// configured S3 bucket, returning the object key.
func (v *Vault) BackupToBucket(ctx context.Context, path string) (string, error) {
	target, err := backup.NewS3Target(ctx, backup.S3Config{
		Bucket:       v.cfg.S3Bucket,
		Region:       v.cfg.S3Region,
		BaseEndpoint: v.cfg.S3BaseEndpoint,
		AccessKey:    v.cfg.S3RootUser,
		SecretKey:    v.cfg.S3RootPassword,
	})
	if err != nil {
		return "", err
	}
	return v.Articles.BackupToBucket(ctx, target, path)
}

// Close releases the database handle.
func (v *Vault) Close() error {
	return v.db.Close()
}
