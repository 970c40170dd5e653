package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"quiz-forge/internal/logger"

	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Execer is the subset of *sql.DB used to apply migrations.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// objectExists matches Oracle errors raised when a table or index is already
// there (ORA-00955) or an index already covers the column list (ORA-01408).
func objectExists(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "ORA-00955") || strings.Contains(msg, "ORA-01408")
}

// UpMigrations returns the embedded up migrations in version order.
func UpMigrations() ([]string, error) {
	return listMigrations(".up.sql")
}

// DownMigrations returns the embedded down migrations in reverse version order.
func DownMigrations() ([]string, error) {
	names, err := listMigrations(".down.sql")
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func listMigrations(suffix string) ([]string, error) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("could not read migrations directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), suffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// RunMigrations applies every up migration. Objects that already exist are
// skipped so the command can be re-run against a provisioned schema.
func RunMigrations(ctx context.Context, db Execer) error {
	names, err := UpMigrations()
	if err != nil {
		return err
	}
	return apply(ctx, db, names, true)
}

// RollbackMigrations applies every down migration.
func RollbackMigrations(ctx context.Context, db Execer) error {
	names, err := DownMigrations()
	if err != nil {
		return err
	}
	return apply(ctx, db, names, false)
}

func apply(ctx context.Context, db Execer, names []string, skipExisting bool) error {
	l := logger.Get()
	for _, name := range names {
		content, err := migrationFiles.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("could not read migration file %s: %w", name, err)
		}

		// go-ora executes one statement per call and rejects a trailing semicolon
		stmt := strings.TrimRight(strings.TrimSpace(string(content)), ";")
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			if skipExisting && objectExists(err) {
				l.Info("Migration already applied", zap.String("file", name))
				continue
			}
			return fmt.Errorf("could not execute migration %s: %w", name, err)
		}
		l.Info("Executed migration", zap.String("file", name))
	}
	l.Info("Migrations completed successfully", zap.Int("count", len(names)))
	return nil
}

// NewMigrateOracleDB opens a plain *sql.DB for the migrate command.
func NewMigrateOracleDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not ping database: %w", err)
	}

	return db, nil
}
