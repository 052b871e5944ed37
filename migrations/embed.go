// Package migrations embeds the cloud simulator's SQL schema so the binary
// can migrate its database without the files on disk.
package migrations

import "embed"

// FS holds the migration files at its root.
//
//go:embed *.sql
var FS embed.FS
