// Package database opens the local SQLite file that backs melsecmon
// settings and applies its schema migrations.
//
// Register values are never stored here; they live in memory for the
// lifetime of a session. The database only remembers user preferences
// such as the display format and whether the mock server starts on launch.
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: "./data/melsecmon.db", WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
