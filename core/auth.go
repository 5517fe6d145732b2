package core

import "time"

// Credential is the stored login material for a single user
type Credential struct {
	UserID       string // Opaque subject identifier handed out in tokens
	Username     string // Unique login name
	PasswordHash string // bcrypt hash of the password, never the password itself
}

// Token is a signed, time-limited bearer token
type Token struct {
	ID        string    // Unique token identifier (jti)
	Subject   string    // User the token was issued to
	IssuedAt  time.Time // When the token was created
	ExpiresAt time.Time // Instant from which the token is no longer accepted
	Raw       string    // Encoded, signed form presented by clients
}

// Identity is what the access gate attaches to an authorized request
type Identity struct {
	UserID  string
	TokenID string
	Expires time.Time
}

// Window is the fixed rate limit window of one client key
type Window struct {
	Start time.Time
	Count int
}

// Decision is the outcome of a single rate limiter admit
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}
