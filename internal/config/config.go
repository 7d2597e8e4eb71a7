// Package config handles configuration for the knowledge-base core,
// including defaults, an optional JSON overlay and environment variables.
package config

// Config holds runtime settings for the knowledge-base core.
//
// Fields:
//   - DatabaseDriver / DatabaseDSN: "sqlite" (modernc) or "pgx" (PostgreSQL)
//     plus the matching DSN.
//   - EncryptionPassphrase / EncryptionSalt: when the passphrase is set the
//     article key is derived with argon2id; otherwise the static
//     development key is used. Do not rely on the dev key in production.
//   - S3*: settings for the optional backup upload target (MinIO in dev).
type Config struct {
	DatabaseDriver string
	DatabaseDSN    string

	EncryptionPassphrase string
	EncryptionSalt       string

	S3RootUser     string
	S3RootPassword string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
}

// LoadDefaults populates Config with development defaults.
// NOTE: these values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "file:kbvault.db"
	c.EncryptionSalt = "kbvault"
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "kb-backups"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file (path in the KBVAULT_CONFIG environment
// variable) and finally from individual environment variables.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	return cfg
}
