// Package migrations embeds the goose schema migrations for both
// supported dialects. Run them with goose.SetBaseFS plus the dialect
// directory as the migrations dir.
package migrations

import "embed"

//go:embed sqlite/*.sql
var SQLite embed.FS

//go:embed postgres/*.sql
var Postgres embed.FS
