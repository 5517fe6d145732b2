package ports

// PasswordHasher produces and checks password verifiers
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare reports whether password matches hash; a mismatch is not an error
	Compare(hash, password string) (bool, error)
}
