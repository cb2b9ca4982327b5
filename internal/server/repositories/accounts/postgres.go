package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/credgate/internal/common"
	"github.com/dmitrijs2005/credgate/internal/cryptox"
	"github.com/dmitrijs2005/credgate/internal/dbx"
	"github.com/dmitrijs2005/credgate/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Account) (*models.Account, error) {

	query :=
		`INSERT INTO accounts (id, identifier, secret_hash, secret_salt, hash_scheme)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		a.ID, a.Identifier, a.SecretHash, nonNil(a.SecretSalt), a.HashScheme).Scan(&a.CreatedAt, &a.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return a, nil
}

func (r *PostgresRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.Account, error) {
	query :=
		`SELECT id, identifier, secret_hash, secret_salt, hash_scheme FROM accounts
		 WHERE identifier = $1
		 LIMIT 2
		 `

	rows, err := r.db.QueryContext(ctx, query, identifier)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	return scanSingle(rows)
}

func (r *PostgresRepository) UpdateSecret(ctx context.Context, id string, d cryptox.Digest) error {
	query :=
		`UPDATE accounts SET secret_hash = $1, secret_salt = $2, hash_scheme = $3, updated_at = now()
		 WHERE id = $4
		 `

	res, err := r.db.ExecContext(ctx, query, d.Hash, nonNil(d.Salt), d.Scheme, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return checkAffected(res)
}
