// Package database provides the SQLite connection used for transmission history.
//
// This package manages:
//   - Opening the database with WAL mode and a busy timeout
//   - Applying versioned migrations from any fs.FS
//   - Health checks for startup and the HTTP API
//
// Security Considerations:
//   - All queries use parameterised statements
//   - The database file is created with 0600 permissions
//   - Payload bytes are never stored, only length and checksum
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql.
package database
