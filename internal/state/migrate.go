package state

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate brings the scan-history schema up to date.
func (s *Store) Migrate() error {
	if s.db == nil {
		return fmt.Errorf("state: database not opened")
	}
	return MigrateWithDB(s.db)
}

// MigrateWithDB runs the embedded migrations against a raw connection.
func MigrateWithDB(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("state: set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("state: run migrations: %w", err)
	}
	return nil
}
