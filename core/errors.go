package core

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")

	// Token verification failures. The access gate collapses all of them
	// into ErrUnauthorized before anything reaches a client.
	ErrTokenMalformed        = errors.New("token is malformed")
	ErrTokenSignatureInvalid = errors.New("token signature is invalid")
	ErrTokenExpired          = errors.New("token has expired")
)
