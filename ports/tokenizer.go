package ports

import "github.com/layer-3/encore/core"

// Tokenizer issues and verifies bearer tokens
type Tokenizer interface {
	// Issue creates a signed token for the given subject
	Issue(subject string) (*core.Token, error)

	// Verify parses and checks a token string, returning
	// core.ErrTokenMalformed, core.ErrTokenSignatureInvalid or core.ErrTokenExpired on failure
	Verify(token string) (*core.Token, error)
}
