package models

import (
	"time"

	"github.com/dmitrijs2005/credgate/internal/cryptox"
)

// Account is one stored identifier with the digest of its secret.
// The raw secret is never part of it.
type Account struct {
	ID         string
	Identifier string
	SecretHash []byte
	SecretSalt []byte
	HashScheme string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Digest returns the stored secret digest in the form cryptox compares.
func (a *Account) Digest() cryptox.Digest {
	return cryptox.Digest{Scheme: a.HashScheme, Salt: a.SecretSalt, Hash: a.SecretHash}
}

// SetDigest replaces the stored digest.
func (a *Account) SetDigest(d cryptox.Digest) {
	a.HashScheme = d.Scheme
	a.SecretSalt = d.Salt
	a.SecretHash = d.Hash
}
