package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/credgate/internal/common"
	"github.com/dmitrijs2005/credgate/internal/cryptox"
	"github.com/dmitrijs2005/credgate/internal/dbx"
	"github.com/dmitrijs2005/credgate/internal/server/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	query := `INSERT INTO accounts (id, identifier, secret_hash, secret_salt, hash_scheme)
			VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, a.ID, a.Identifier, a.SecretHash, nonNil(a.SecretSalt), a.HashScheme)
	if err != nil {
		var sqlErr *sqlite.Error
		if errors.As(err, &sqlErr) && sqlErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return a, nil
}

func (r *SQLiteRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.Account, error) {
	query := `SELECT id, identifier, secret_hash, secret_salt, hash_scheme FROM accounts
			WHERE identifier = ?
			LIMIT 2`

	rows, err := r.db.QueryContext(ctx, query, identifier)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return scanSingle(rows)
}

func (r *SQLiteRepository) UpdateSecret(ctx context.Context, id string, d cryptox.Digest) error {
	query := `UPDATE accounts SET secret_hash = ?, secret_salt = ?, hash_scheme = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`

	res, err := r.db.ExecContext(ctx, query, d.Hash, nonNil(d.Salt), d.Scheme, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return checkAffected(res)
}
