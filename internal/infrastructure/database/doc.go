// Package database provides SQLite connectivity for the cloud simulator.
//
// This package manages:
//   - Opening the database file with WAL mode and a busy timeout
//   - Forward and rollback schema migrations read from an fs.FS
//   - Transactions through WithTx
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration files sit at the root of the filesystem and are named
// YYYYMMDD_HHMMSS_description.up.sql, with an optional .down.sql.
package database
