package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims are the claims carried by an access token.
// The subject holds the user ID.
type AccessClaims struct {
	jwt.RegisteredClaims
}
