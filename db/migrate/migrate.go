// Package migrate applies the embedded SQL schema migrations.
//
// Migrations are SQL files under db/migrate/migrations named NNN_name.sql and
// are applied in version order, each inside its own transaction. Applied
// versions are tracked in the schema_migrations table so a migration runs
// exactly once.
//
// Call Run after connecting but before starting the engine or the API:
//
//	pool, _ := pgxpool.New(ctx, databaseURL)
//	if err := migrate.Run(ctx, pool, logger); err != nil { ... }
package migrate

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migration is one migration file pending application.
type migration struct {
	version int
	name    string
	sql     string
}

// Run executes all pending migrations against the pool.
func Run(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	logger.Info("checking database migrations")

	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("reading applied migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return err
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	available, err := availableMigrations()
	if err != nil {
		return fmt.Errorf("reading migration files: %w", err)
	}

	pending := 0
	for _, mig := range available {
		if applied[mig.version] {
			continue
		}
		logger.Info("applying migration", "version", mig.version, "name", mig.name)
		if err := applyMigration(ctx, pool, mig); err != nil {
			return fmt.Errorf("applying migration %03d_%s: %w", mig.version, mig.name, err)
		}
		pending++
	}

	if pending == 0 {
		logger.Info("database schema is up to date", "version", len(applied))
	} else {
		logger.Info("migrations complete", "applied", pending)
	}
	return nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, mig migration) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, mig.sql); err != nil {
		return fmt.Errorf("executing SQL: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO schema_migrations (version, name) VALUES ($1, $2)
	`, mig.version, mig.name); err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}
	return tx.Commit(ctx)
}

func availableMigrations() ([]migration, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var migrations []migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version, name, err := parseMigrationFilename(entry.Name())
		if err != nil {
			return nil, err
		}
		content, err := fs.ReadFile(migrationsFS, "migrations/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}
		migrations = append(migrations, migration{version: version, name: name, sql: string(content)})
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].version < migrations[j].version })
	return migrations, nil
}

// parseMigrationFilename extracts version and name from NNN_name.sql.
func parseMigrationFilename(filename string) (int, string, error) {
	base := strings.TrimSuffix(filename, ".sql")
	parts := strings.SplitN(base, "_", 2)
	if len(parts) != 2 || parts[1] == "" {
		return 0, "", fmt.Errorf("invalid migration filename: %s (expected NNN_name.sql)", filename)
	}
	version, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", fmt.Errorf("invalid version number in %s: %w", filename, err)
	}
	return version, parts[1], nil
}
