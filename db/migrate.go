package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationsDir = "migrations"

// goose keeps its dialect and base FS in package state; these seams let tests
// run without a database.
var (
	openDB = func(dbURL string) (*sql.DB, error) {
		return goose.OpenDBWithDriver("pgx", dbURL)
	}
	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
		return goose.UpContext(ctx, db, dir)
	}
	gooseDown = func(ctx context.Context, db *sql.DB, dir string) error {
		return goose.DownContext(ctx, db, dir)
	}
	gooseStatus = func(ctx context.Context, db *sql.DB, dir string) error {
		return goose.StatusContext(ctx, db, dir)
	}
)

// Migrate applies, rolls back or reports the embedded schema migrations.
// direction is one of "up", "down" or "status".
func Migrate(ctx context.Context, dbURL, direction string) error {
	run, ok := map[string]func(context.Context, *sql.DB, string) error{
		"up":     gooseUp,
		"down":   gooseDown,
		"status": gooseStatus,
	}[direction]
	if !ok {
		return fmt.Errorf("unknown migration direction %q", direction)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	sqlDB, err := openDB(dbURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer sqlDB.Close()

	if err := run(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("migrate %s: %w", direction, err)
	}
	return nil
}
