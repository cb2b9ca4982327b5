package verifier

import (
	"fmt"

	"github.com/dmitrijs2005/credgate/internal/common"
	"golang.org/x/text/secure/precis"
)

// IdentifierPolicy bounds and normalises untrusted credentials. The same
// policy must be used when accounts are provisioned and when they are
// verified, otherwise stored identifiers will not match.
type IdentifierPolicy struct {
	// MaxLength is the byte bound for identifiers and secrets.
	MaxLength int
	// CaseInsensitive maps identifiers to lower case (RFC 8265
	// UsernameCaseMapped) instead of preserving case.
	CaseInsensitive bool
}

func DefaultPolicy() IdentifierPolicy {
	return IdentifierPolicy{MaxLength: common.DefaultMaxCredentialLength}
}

func (p IdentifierPolicy) maxLength() int {
	if p.MaxLength <= 0 {
		return common.DefaultMaxCredentialLength
	}
	return p.MaxLength
}

// NormalizeIdentifier checks the length bound first and then applies the
// PRECIS username profile. Every rejection wraps common.ErrValidation.
func (p IdentifierPolicy) NormalizeIdentifier(identifier string) (string, error) {
	if identifier == "" {
		return "", fmt.Errorf("%w: empty identifier", common.ErrValidation)
	}
	if len(identifier) > p.maxLength() {
		return "", fmt.Errorf("%w: identifier longer than %d bytes", common.ErrValidation, p.maxLength())
	}

	profile := precis.UsernameCasePreserved
	if p.CaseInsensitive {
		profile = precis.UsernameCaseMapped
	}

	normalized, err := profile.String(identifier)
	if err != nil {
		return "", fmt.Errorf("%w: malformed identifier: %v", common.ErrValidation, err)
	}
	// mapping can grow the string
	if len(normalized) > p.maxLength() {
		return "", fmt.Errorf("%w: identifier longer than %d bytes", common.ErrValidation, p.maxLength())
	}
	return normalized, nil
}

// CheckSecret applies the length bound to a secret. Secrets are otherwise
// opaque and hashed byte for byte.
func (p IdentifierPolicy) CheckSecret(secret string) error {
	if secret == "" {
		return fmt.Errorf("%w: empty secret", common.ErrValidation)
	}
	if len(secret) > p.maxLength() {
		return fmt.Errorf("%w: secret longer than %d bytes", common.ErrValidation, p.maxLength())
	}
	return nil
}
