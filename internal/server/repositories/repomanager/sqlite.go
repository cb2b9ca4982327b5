package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/credgate/internal/dbx"
	"github.com/dmitrijs2005/credgate/internal/server/repositories/accounts"
	"github.com/pressly/goose/v3"
)

// SQLiteRepositoryManager vends SQLite-backed repositories.
type SQLiteRepositoryManager struct{}

func (m *SQLiteRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewSQLiteRepository(db)
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate(ctx, db, goose.DialectSQLite3, "sqlite")
}
