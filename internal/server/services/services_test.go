package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/credgate/internal/cryptox"
	"github.com/dmitrijs2005/credgate/internal/dbx"
	"github.com/dmitrijs2005/credgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/credgate/internal/server/verifier"
	"github.com/stretchr/testify/require"
)

// cheap parameters keep the suite fast; the code paths are identical
var testParams = cryptox.Argon2Params{Time: 1, MemoryKiB: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

type fixture struct {
	db       *sql.DB
	rm       repomanager.RepositoryManager
	hasher   *cryptox.Hasher
	accounts *AccountService
	verifier *verifier.Verifier
}

func newFixture(t *testing.T, policy verifier.IdentifierPolicy) *fixture {
	t.Helper()

	ctx := context.Background()
	db, err := dbx.Open(ctx, dbx.DriverSQLite, filepath.Join(t.TempDir(), "accounts.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm, err := repomanager.New(dbx.DriverSQLite)
	require.NoError(t, err)
	require.NoError(t, rm.RunMigrations(ctx, db))

	h, err := cryptox.NewHasher(testParams)
	require.NoError(t, err)

	return &fixture{
		db:       db,
		rm:       rm,
		hasher:   h,
		accounts: NewAccountService(db, rm, h, policy),
		verifier: verifier.New(rm.Accounts(db), h, policy),
	}
}
