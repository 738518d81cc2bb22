// Package migrations embeds the SQL schema for the transcript archive.
package migrations

import "embed"

// FS holds the migration files, applied in lexical order on open.
//
//go:embed *.sql
var FS embed.FS
