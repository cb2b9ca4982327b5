package client

import "errors"

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidInput = errors.New("invalid input")
	ErrTokenExpired = errors.New("session expired")
	ErrNotLoggedIn  = errors.New("not logged in")
	ErrBadResponse  = errors.New("malformed server response")
	ErrRateLimited  = errors.New("too many attempts, try again later")
)
