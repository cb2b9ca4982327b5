// Package auth issues and checks the signed session tokens handed out after
// a successful verification.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/credgate/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

const issuer = "credgate"

// Claims are the registered claims plus the identifier the account logged in
// with. Subject carries the account ID.
type Claims struct {
	jwt.RegisteredClaims
	Identifier string `json:"identifier"`
}

// Session is what a valid token tells the caller.
type Session struct {
	AccountID  string
	Identifier string
	ExpiresAt  time.Time
}

// GenerateToken signs a session token and returns it with the expiry it
// carries, at the claim's precision.
func GenerateToken(accountID, identifier string, secretKey []byte, validityDuration time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := jwt.NewNumericDate(now.Add(validityDuration))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: exp,
		},
		Identifier: identifier,
	})

	signed, err := token.SignedString(secretKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp.Time, nil
}

// ParseToken validates tokenString and returns its session. Expired tokens
// yield common.ErrTokenExpired, anything else common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Session, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return &Session{
		AccountID:  claims.Subject,
		Identifier: claims.Identifier,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}
