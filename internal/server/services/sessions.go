package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/credgate/internal/common"
	"github.com/dmitrijs2005/credgate/internal/server/auth"
	"github.com/dmitrijs2005/credgate/internal/server/verifier"
)

// CredentialVerifier is satisfied by *verifier.Verifier.
type CredentialVerifier interface {
	Verify(ctx context.Context, identifier, secret string) (verifier.Result, error)
}

// Session is a freshly issued access token and the account it belongs to.
type Session struct {
	AccessToken string
	AccountID   string
	Identifier  string
	ExpiresAt   time.Time
}

// SessionService logs accounts in and checks the tokens it issued.
type SessionService struct {
	verifier                    CredentialVerifier
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

func NewSessionService(v CredentialVerifier, jwtSecret []byte, validity time.Duration) *SessionService {
	return &SessionService{
		verifier:                    v,
		jwtSecret:                   jwtSecret,
		accessTokenValidityDuration: validity,
	}
}

// Login verifies the credentials and issues a token on success. A Failure
// is reported as common.ErrorUnauthorized; validation and store errors are
// passed through unchanged.
func (s *SessionService) Login(ctx context.Context, identifier, secret string) (*Session, error) {
	res, err := s.verifier.Verify(ctx, identifier, secret)
	if err != nil {
		return nil, err
	}

	ref, ok := res.Account()
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	token, expires, err := auth.GenerateToken(ref.ID(), ref.Identifier(), s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &Session{
		AccessToken: token,
		AccountID:   ref.ID(),
		Identifier:  ref.Identifier(),
		ExpiresAt:   expires,
	}, nil
}

// Authenticate returns the session a token stands for.
func (s *SessionService) Authenticate(token string) (*auth.Session, error) {
	return auth.ParseToken(token, s.jwtSecret)
}

func (s *SessionService) Lifetime() time.Duration {
	return s.accessTokenValidityDuration
}
