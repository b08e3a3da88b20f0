package test

import (
	"database/sql"
	"log"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"todoapi/internal/adapter/database/sqlite"
	"todoapi/pkg"
)

// InitTestDB opens a fresh in-memory database with every sqlite migration
// applied. Each call returns an isolated database.
func InitTestDB() *sqlite.DB {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")

	if err != nil {
		log.Fatal(err)
	}

	// every connection to :memory: is a new database
	db.SetMaxOpenConns(1)

	migrationsPath := filepath.Join(pkg.FindProjectRoot(), "db", "migrations", "sqlite")

	if err := sqlite.RunMigrations(db, migrationsPath); err != nil {
		log.Fatal(err)
	}

	return sqlite.Wrap(db)
}

// CleanDB empties the application tables between tests that share a database.
func CleanDB(db *sqlite.DB) error {
	for _, table := range []string{"todos", "users"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}

	return nil
}
