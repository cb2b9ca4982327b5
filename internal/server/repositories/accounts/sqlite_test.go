package accounts

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dmitrijs2005/credgate/internal/common"
	"github.com/dmitrijs2005/credgate/internal/cryptox"
	"github.com/dmitrijs2005/credgate/internal/dbx"
	"github.com/dmitrijs2005/credgate/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sqliteSchema = `CREATE TABLE accounts (
    id          TEXT PRIMARY KEY,
    identifier  TEXT NOT NULL UNIQUE,
    secret_hash BLOB NOT NULL,
    secret_salt BLOB NOT NULL,
    hash_scheme TEXT NOT NULL,
    created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

func newSQLiteRepo(t *testing.T) (*SQLiteRepository, *sql.DB) {
	t.Helper()
	db, err := sql.Open(dbx.DriverSQLite, "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(sqliteSchema)
	require.NoError(t, err)

	return NewSQLiteRepository(db), db
}

func TestSQLite_CreateAndFind(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, &models.Account{ID: "a-1", Identifier: "alice", SecretHash: []byte("h"), SecretSalt: []byte("s"), HashScheme: "scheme"})
	require.NoError(t, err)

	got, err := repo.FindByIdentifier(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "a-1", got.ID)
	assert.Equal(t, "alice", got.Identifier)
	assert.Equal(t, []byte("h"), got.SecretHash)
	assert.Equal(t, []byte("s"), got.SecretSalt)

	_, err = repo.FindByIdentifier(ctx, "Alice")
	assert.ErrorIs(t, err, common.ErrorNotFound, "lookup is exact; case policy is applied before the store")
}

func TestSQLite_CreateDuplicate(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, &models.Account{ID: "a-1", Identifier: "alice", SecretHash: []byte("h"), HashScheme: cryptox.SchemeBcrypt})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.Account{ID: "a-2", Identifier: "alice", SecretHash: []byte("h"), HashScheme: cryptox.SchemeBcrypt})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestSQLite_DuplicateRowsAreNotFound(t *testing.T) {
	repo, db := newSQLiteRepo(t)

	// a table without the unique constraint, as a damaged store might have
	_, err := db.Exec(`DROP TABLE accounts`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE accounts (id TEXT, identifier TEXT, secret_hash BLOB, secret_salt BLOB, hash_scheme TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO accounts VALUES ('a-1','alice',x'01',x'02','s'), ('a-2','alice',x'03',x'04','s')`)
	require.NoError(t, err)

	_, err = repo.FindByIdentifier(context.Background(), "alice")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSQLite_UpdateSecret(t *testing.T) {
	repo, _ := newSQLiteRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, &models.Account{ID: "a-1", Identifier: "alice", SecretHash: []byte("old"), SecretSalt: []byte("s"), HashScheme: "scheme"})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateSecret(ctx, "a-1", cryptox.Digest{Scheme: "scheme2", Salt: []byte("s2"), Hash: []byte("new")}))

	got, err := repo.FindByIdentifier(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), got.SecretHash)
	assert.Equal(t, "scheme2", got.HashScheme)

	assert.ErrorIs(t, repo.UpdateSecret(ctx, "nope", cryptox.Digest{Hash: []byte("x")}), common.ErrorNotFound)
}

func TestSQLite_ClosedDB(t *testing.T) {
	repo, db := newSQLiteRepo(t)
	require.NoError(t, db.Close())

	_, err := repo.FindByIdentifier(context.Background(), "alice")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}
