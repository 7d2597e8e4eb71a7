package config

import "os"

// parseEnv overlays Config fields from individual environment variables.
// Environment variables win over the JSON file, which wins over defaults.
func parseEnv(config *Config) {
	overlay(&config.DatabaseDriver, os.Getenv("KBVAULT_DATABASE_DRIVER"))
	overlay(&config.DatabaseDSN, os.Getenv("KBVAULT_DATABASE_DSN"))
	overlay(&config.EncryptionPassphrase, os.Getenv("KBVAULT_ENCRYPTION_PASSPHRASE"))
	overlay(&config.EncryptionSalt, os.Getenv("KBVAULT_ENCRYPTION_SALT"))
	overlay(&config.S3RootUser, os.Getenv("KBVAULT_S3_ROOT_USER"))
	overlay(&config.S3RootPassword, os.Getenv("KBVAULT_S3_ROOT_PASSWORD"))
	overlay(&config.S3Bucket, os.Getenv("KBVAULT_S3_BUCKET"))
	overlay(&config.S3Region, os.Getenv("KBVAULT_S3_REGION"))
	overlay(&config.S3BaseEndpoint, os.Getenv("KBVAULT_S3_BASE_ENDPOINT"))
}
