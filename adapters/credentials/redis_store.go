package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/layer-3/encore/core"
	"github.com/redis/go-redis/v9"
)

const (
	fieldUserID = "id"
	fieldHash   = "hash"
)

// RedisStore keeps credentials in Redis hashes:
// <prefix>user:<username> -> {id, hash} and <prefix>id:<userID> -> username
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis credential store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "encore:credential:",
	}
}

// Put writes a credential, replacing any previous one for the same username
// or user ID. Index entries left behind by the replaced records are removed.
func (s *RedisStore) Put(ctx context.Context, c core.Credential) error {
	userKey, idKey := s.userKey(c.Username), s.idKey(c.UserID)

	txf := func(tx *redis.Tx) error {
		prevID, err := tx.HGet(ctx, userKey, fieldUserID).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		prevName, err := tx.Get(ctx, idKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if prevID != "" && prevID != c.UserID {
				pipe.Del(ctx, s.idKey(prevID))
			}
			if prevName != "" && prevName != c.Username {
				pipe.Del(ctx, s.userKey(prevName))
			}
			pipe.HSet(ctx, userKey, fieldUserID, c.UserID, fieldHash, c.PasswordHash)
			pipe.Set(ctx, idKey, c.Username, 0)
			return nil
		})
		return err
	}

	if err := s.client.Watch(ctx, txf, userKey, idKey); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// FindByUsername returns the stored credential, or nil if unknown
func (s *RedisStore) FindByUsername(ctx context.Context, username string) (*core.Credential, error) {
	vals, err := s.client.HGetAll(ctx, s.userKey(username)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	if len(vals) == 0 {
		return nil, nil
	}

	return &core.Credential{
		UserID:       vals[fieldUserID],
		Username:     username,
		PasswordHash: vals[fieldHash],
	}, nil
}

// FindByID resolves the username for userID and loads its credential
func (s *RedisStore) FindByID(ctx context.Context, userID string) (*core.Credential, error) {
	username, err := s.client.Get(ctx, s.idKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user id: %w", err)
	}
	return s.FindByUsername(ctx, username)
}

func (s *RedisStore) userKey(username string) string {
	return s.prefix + "user:" + username
}

func (s *RedisStore) idKey(userID string) string {
	return s.prefix + "id:" + userID
}
