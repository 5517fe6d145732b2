package credentials

import (
	"context"
	"testing"

	"github.com/layer-3/encore/core"
	"github.com/layer-3/encore/internal/redistest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	s := NewRedisStore(redistest.Client(t))

	require.NoError(t, s.Put(ctx, core.Credential{UserID: "1", Username: "user", PasswordHash: "hash"}))

	c, err := s.FindByUsername(ctx, "user")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, core.Credential{UserID: "1", Username: "user", PasswordHash: "hash"}, *c)

	c, err = s.FindByID(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "user", c.Username)

	c, err = s.FindByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = s.FindByID(ctx, "404")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestRedisStore_PutReplacesStaleIndexes(t *testing.T) {
	ctx := context.Background()
	s := NewRedisStore(redistest.Client(t))

	require.NoError(t, s.Put(ctx, core.Credential{UserID: "1", Username: "user", PasswordHash: "h1"}))
	require.NoError(t, s.Put(ctx, core.Credential{UserID: "2", Username: "user", PasswordHash: "h2"}))

	c, err := s.FindByID(ctx, "1")
	require.NoError(t, err)
	assert.Nil(t, c, "the replaced id must no longer resolve")

	c, err = s.FindByID(ctx, "2")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "h2", c.PasswordHash)

	require.NoError(t, s.Put(ctx, core.Credential{UserID: "2", Username: "renamed", PasswordHash: "h3"}))

	c, err = s.FindByUsername(ctx, "user")
	require.NoError(t, err)
	assert.Nil(t, c, "the old username must no longer log in")

	c, err = s.FindByID(ctx, "2")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "renamed", c.Username)
}

func TestRedisStore_PutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewRedisStore(redistest.Client(t))
	cred := core.Credential{UserID: "1", Username: "user", PasswordHash: "h"}

	require.NoError(t, s.Put(ctx, cred))
	require.NoError(t, s.Put(ctx, cred))

	c, err := s.FindByID(ctx, "1")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, cred, *c)
}
