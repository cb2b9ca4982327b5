// Package services contains server-side business logic: provisioning
// accounts and turning a successful verification into a session.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/credgate/internal/common"
	"github.com/dmitrijs2005/credgate/internal/cryptox"
	"github.com/dmitrijs2005/credgate/internal/dbx"
	"github.com/dmitrijs2005/credgate/internal/server/models"
	"github.com/dmitrijs2005/credgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/credgate/internal/server/verifier"
	"github.com/google/uuid"
)

// Hasher derives digests for new secrets.
type Hasher interface {
	Hash(secret []byte) (cryptox.Digest, error)
}

// AccountService provisions accounts. Identifiers go through the same
// policy the verifier uses so that what is stored is what gets looked up.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      Hasher
	policy      verifier.IdentifierPolicy
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, hasher Hasher, policy verifier.IdentifierPolicy) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		policy:      policy,
	}
}

// Create stores a new account. A taken identifier yields
// common.ErrorAlreadyExists; bad input wraps common.ErrValidation.
func (s *AccountService) Create(ctx context.Context, identifier, secret string) (*models.Account, error) {
	normalized, err := s.policy.NormalizeIdentifier(identifier)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CheckSecret(secret); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("error hashing secret: %w", err)
	}

	account := &models.Account{ID: uuid.NewString(), Identifier: normalized}
	account.SetDigest(digest)

	a, err := s.repomanager.Accounts(s.db).Create(ctx, account)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating account: %w", err)
	}
	return a, nil
}

// SetSecret replaces the secret of an existing account. Lookup and update
// run in one transaction.
func (s *AccountService) SetSecret(ctx context.Context, identifier, secret string) error {
	normalized, err := s.policy.NormalizeIdentifier(identifier)
	if err != nil {
		return err
	}
	if err := s.policy.CheckSecret(secret); err != nil {
		return err
	}

	digest, err := s.hasher.Hash([]byte(secret))
	if err != nil {
		return fmt.Errorf("error hashing secret: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		account, err := repo.FindByIdentifier(ctx, normalized)
		if err != nil {
			return err
		}
		return repo.UpdateSecret(ctx, account.ID, digest)
	})
}
