package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// JsonConfig is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, non-empty fields are copied
// into the runtime Config, so a sparse file overrides only what it names.
type JsonConfig struct {
	DatabaseDriver       string `json:"database_driver"`
	DatabaseDSN          string `json:"database_dsn"`
	EncryptionPassphrase string `json:"encryption_passphrase"`
	EncryptionSalt       string `json:"encryption_salt"`
	S3RootUser           string `json:"s3_root_user"`
	S3RootPassword       string `json:"s3_root_password"`
	S3Bucket             string `json:"s3_bucket"`
	S3Region             string `json:"s3_region"`
	S3BaseEndpoint       string `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from the JSON file named by the
// KBVAULT_CONFIG environment variable, if any. An unreadable or invalid
// file panics: a half-applied configuration is worse than failing at
// startup.
func parseJson(config *Config) {
	jsonConfigFile := os.Getenv("KBVAULT_CONFIG")
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(fmt.Sprintf("config: reading %s: %v", jsonConfigFile, err))
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(fmt.Sprintf("config: parsing %s: %v", jsonConfigFile, err))
	}

	overlay(&config.DatabaseDriver, c.DatabaseDriver)
	overlay(&config.DatabaseDSN, c.DatabaseDSN)
	overlay(&config.EncryptionPassphrase, c.EncryptionPassphrase)
	overlay(&config.EncryptionSalt, c.EncryptionSalt)
	overlay(&config.S3RootUser, c.S3RootUser)
	overlay(&config.S3RootPassword, c.S3RootPassword)
	overlay(&config.S3Bucket, c.S3Bucket)
	overlay(&config.S3Region, c.S3Region)
	overlay(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
