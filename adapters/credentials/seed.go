package credentials

import (
	"context"
	"fmt"

	"github.com/layer-3/encore/core"
)

// SeedUser is a user definition read from configuration. Either a bcrypt
// PasswordHash or a plaintext Password is given; a plaintext password is
// hashed before it reaches any store.
type SeedUser struct {
	ID           string `yaml:"id" validate:"required"`
	Username     string `yaml:"username" validate:"required"`
	Password     string `yaml:"password" validate:"required_without=PasswordHash"`
	PasswordHash string `yaml:"password_hash"`
}

// DefaultSeedUsers is the demo account every fresh deployment starts with
var DefaultSeedUsers = []SeedUser{
	{ID: "1", Username: "user", Password: "password"},
}

// Writer is a credential store that accepts new credentials
type Writer interface {
	Put(ctx context.Context, c core.Credential) error
}

// Seed writes each user to the store, hashing plaintext passwords first
func Seed(ctx context.Context, store Writer, hasher *BcryptHasher, users []SeedUser) error {
	for _, u := range users {
		hash := u.PasswordHash
		if hash == "" {
			var err error
			if hash, err = hasher.Hash(u.Password); err != nil {
				return fmt.Errorf("seeding %q: %w", u.Username, err)
			}
		}

		if err := store.Put(ctx, core.Credential{
			UserID:       u.ID,
			Username:     u.Username,
			PasswordHash: hash,
		}); err != nil {
			return fmt.Errorf("seeding %q: %w", u.Username, err)
		}
	}
	return nil
}
