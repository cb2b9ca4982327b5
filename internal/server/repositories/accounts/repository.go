// Package accounts stores Account rows. Two implementations share one
// contract: PostgreSQL for deployments and SQLite for single-node or
// embedded use.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/credgate/internal/cryptox"
	"github.com/dmitrijs2005/credgate/internal/server/models"
)

// Finder is the read side the verifier depends on.
type Finder interface {
	// FindByIdentifier returns the single account stored under identifier.
	// It returns common.ErrorNotFound both when no row matches and when more
	// than one does.
	FindByIdentifier(ctx context.Context, identifier string) (*models.Account, error)
}

type Repository interface {
	Finder
	// Create inserts a. A taken identifier yields common.ErrorAlreadyExists.
	Create(ctx context.Context, a *models.Account) (*models.Account, error)
	// UpdateSecret replaces the digest of account id.
	UpdateSecret(ctx context.Context, id string, d cryptox.Digest) error
}

// nonNil keeps empty salts (bcrypt rows) from being bound as NULL.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
