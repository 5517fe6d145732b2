package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/layer-3/encore/core"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps track and playlist documents as JSON in per-user Redis lists
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "encore:",
	}
}

// SaveTrack appends a track document to its owner's list
func (s *RedisStore) SaveTrack(ctx context.Context, track *core.Track) error {
	return s.push(ctx, s.prefix+"tracks:"+track.UserID, track)
}

// TracksByUser returns the user's tracks in upload order
func (s *RedisStore) TracksByUser(ctx context.Context, userID string) ([]core.Track, error) {
	return loadAll[core.Track](ctx, s.client, s.prefix+"tracks:"+userID)
}

// SavePlaylist appends a playlist document to its owner's list
func (s *RedisStore) SavePlaylist(ctx context.Context, playlist *core.Playlist) error {
	return s.push(ctx, s.prefix+"playlists:"+playlist.UserID, playlist)
}

// PlaylistsByUser returns the user's playlists in creation order
func (s *RedisStore) PlaylistsByUser(ctx context.Context, userID string) ([]core.Playlist, error) {
	return loadAll[core.Playlist](ctx, s.client, s.prefix+"playlists:"+userID)
}

func (s *RedisStore) push(ctx context.Context, key string, doc any) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	if err := s.client.RPush(ctx, key, payload).Err(); err != nil {
		return fmt.Errorf("failed to store document: %w", err)
	}

	return nil
}

func loadAll[T any](ctx context.Context, client *redis.Client, key string) ([]T, error) {
	raw, err := client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	out := make([]T, 0, len(raw))
	for _, r := range raw {
		var doc T
		if err := json.Unmarshal([]byte(r), &doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document: %w", err)
		}
		out = append(out, doc)
	}

	return out, nil
}
