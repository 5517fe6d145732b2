package store

import (
	"context"
	"sync"

	"github.com/layer-3/encore/core"
)

// MemoryStore is an in-memory TrackStore and PlaylistStore.
// It starts empty and loses everything on restart.
type MemoryStore struct {
	tracks    map[string][]core.Track
	playlists map[string][]core.Playlist
	mu        sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tracks:    make(map[string][]core.Track),
		playlists: make(map[string][]core.Playlist),
	}
}

// SaveTrack appends a track to its owner's list
func (s *MemoryStore) SaveTrack(ctx context.Context, track *core.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tracks[track.UserID] = append(s.tracks[track.UserID], *track)
	return nil
}

// TracksByUser returns the user's tracks in upload order, never nil
func (s *MemoryStore) TracksByUser(ctx context.Context, userID string) ([]core.Track, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Track, len(s.tracks[userID]))
	copy(out, s.tracks[userID])
	return out, nil
}

// SavePlaylist appends a playlist to its owner's list
func (s *MemoryStore) SavePlaylist(ctx context.Context, playlist *core.Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.playlists[playlist.UserID] = append(s.playlists[playlist.UserID], *playlist)
	return nil
}

// PlaylistsByUser returns the user's playlists in creation order, never nil
func (s *MemoryStore) PlaylistsByUser(ctx context.Context, userID string) ([]core.Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Playlist, len(s.playlists[userID]))
	copy(out, s.playlists[userID])
	return out, nil
}
