package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("KBVAULT_CONFIG", "")
	t.Setenv("KBVAULT_DATABASE_DSN", "")
	t.Setenv("KBVAULT_DATABASE_DRIVER", "")

	cfg := LoadConfig()

	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "file:kbvault.db", cfg.DatabaseDSN)
	assert.Empty(t, cfg.EncryptionPassphrase)
	assert.Equal(t, "kbvault", cfg.EncryptionSalt)
	assert.Equal(t, "kb-backups", cfg.S3Bucket)
}

func TestLoadConfig_JsonOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"database_driver": "pgx",
		"database_dsn": "postgres://kb:kb@localhost:5432/kb",
		"encryption_passphrase": "from-json"
	}`), 0o600))

	t.Setenv("KBVAULT_CONFIG", path)
	t.Setenv("KBVAULT_DATABASE_DSN", "")
	t.Setenv("KBVAULT_ENCRYPTION_PASSPHRASE", "")

	cfg := LoadConfig()

	assert.Equal(t, "pgx", cfg.DatabaseDriver)
	assert.Equal(t, "postgres://kb:kb@localhost:5432/kb", cfg.DatabaseDSN)
	assert.Equal(t, "from-json", cfg.EncryptionPassphrase)
	// Untouched fields keep their defaults.
	assert.Equal(t, "kbvault", cfg.EncryptionSalt)
}

func TestLoadConfig_EnvWinsOverJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"database_dsn": "from-json"}`), 0o600))

	t.Setenv("KBVAULT_CONFIG", path)
	t.Setenv("KBVAULT_DATABASE_DSN", "from-env")

	cfg := LoadConfig()
	assert.Equal(t, "from-env", cfg.DatabaseDSN)
}

func TestLoadConfig_InvalidJsonPanics(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	t.Setenv("KBVAULT_CONFIG", path)
	assert.Panics(t, func() { LoadConfig() })
}
