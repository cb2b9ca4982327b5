// Package verifier decides whether a submitted identifier and secret match
// a stored account.
//
// Verify has four outcomes. Success and Failure come back as a Result; a
// malformed input is an error wrapping common.ErrValidation and a store
// outage is an error wrapping common.ErrStoreUnavailable. A Failure never
// says why: a missing account and a wrong secret look the same to the
// caller, and both cost one full hash derivation.
package verifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/credgate/internal/common"
	"github.com/dmitrijs2005/credgate/internal/cryptox"
	"github.com/dmitrijs2005/credgate/internal/server/repositories/accounts"
)

// SecretComparer is the part of cryptox.Hasher the verifier needs.
type SecretComparer interface {
	Compare(secret []byte, d cryptox.Digest) bool
	Dummy() cryptox.Digest
}

// AccountRef identifies the account a successful verification matched.
type AccountRef struct {
	id         string
	identifier string
}

func (r AccountRef) ID() string         { return r.id }
func (r AccountRef) Identifier() string { return r.identifier }

// Result is either Success, carrying an AccountRef, or Failure.
type Result struct {
	ok      bool
	account AccountRef
}

// Failure is the zero Result.
var Failure = Result{}

func success(id, identifier string) Result {
	return Result{ok: true, account: AccountRef{id: id, identifier: identifier}}
}

func (r Result) Success() bool { return r.ok }

// Account returns the matched account. The bool is false for Failure.
func (r Result) Account() (AccountRef, bool) {
	return r.account, r.ok
}

// Verifier holds only immutable collaborators, so one instance serves any
// number of concurrent calls.
type Verifier struct {
	accounts accounts.Finder
	hasher   SecretComparer
	policy   IdentifierPolicy
}

func New(finder accounts.Finder, hasher SecretComparer, policy IdentifierPolicy) *Verifier {
	return &Verifier{accounts: finder, hasher: hasher, policy: policy}
}

func (v *Verifier) Policy() IdentifierPolicy {
	return v.policy
}

// Verify checks secret against the account stored under identifier.
// Inputs are validated before the store is touched.
func (v *Verifier) Verify(ctx context.Context, identifier, secret string) (Result, error) {
	normalized, err := v.policy.NormalizeIdentifier(identifier)
	if err != nil {
		return Failure, err
	}
	if err := v.policy.CheckSecret(secret); err != nil {
		return Failure, err
	}

	account, err := v.accounts.FindByIdentifier(ctx, normalized)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			v.hasher.Compare([]byte(secret), v.hasher.Dummy())
			return Failure, nil
		}
		return Failure, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}

	if !v.hasher.Compare([]byte(secret), account.Digest()) {
		return Failure, nil
	}

	return success(account.ID, account.Identifier), nil
}
