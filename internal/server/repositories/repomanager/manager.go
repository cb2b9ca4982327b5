// Package repomanager vends repository implementations for the configured
// database driver and applies the matching schema migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/credgate/internal/dbx"
	"github.com/dmitrijs2005/credgate/internal/server/migrations"
	"github.com/dmitrijs2005/credgate/internal/server/repositories/accounts"
	"github.com/pressly/goose/v3"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
}

// New returns the RepositoryManager for a dbx driver name.
func New(driver string) (RepositoryManager, error) {
	switch driver {
	case dbx.DriverPostgres:
		return &PostgresRepositoryManager{}, nil
	case dbx.DriverSQLite:
		return &SQLiteRepositoryManager{}, nil
	}
	return nil, fmt.Errorf("no repositories for driver %q", driver)
}

type migrator interface {
	Up(ctx context.Context) ([]*goose.MigrationResult, error)
}

// newMigrator is a seam for testing goose.NewProvider.
var newMigrator = func(dialect goose.Dialect, db *sql.DB, fsys fs.FS) (migrator, error) {
	return goose.NewProvider(dialect, db, fsys)
}

func migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect, dir string) error {
	fsys, err := migrations.Dir(dir)
	if err != nil {
		return err
	}

	m, err := newMigrator(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("migration setup error: %w", err)
	}

	if _, err := m.Up(ctx); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}
