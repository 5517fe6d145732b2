package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/encore/core"
	"github.com/layer-3/encore/ports"
	"go.uber.org/zap"
)

// Upload is one file of an offline upload request
type Upload struct {
	Filename    string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// LibraryService manages a user's offline tracks and playlists
type LibraryService struct {
	tracks    ports.TrackStore
	playlists ports.PlaylistStore
	blobs     ports.BlobStore
	eventPub  ports.EventPublisher
	log       *zap.Logger
	now       func() time.Time
}

// NewLibraryService creates a new library service
func NewLibraryService(
	tracks ports.TrackStore,
	playlists ports.PlaylistStore,
	blobs ports.BlobStore,
	eventPub ports.EventPublisher,
	log *zap.Logger,
) *LibraryService {
	return &LibraryService{
		tracks:    tracks,
		playlists: playlists,
		blobs:     blobs,
		eventPub:  eventPub,
		log:       log.Named("library"),
		now:       time.Now,
	}
}

// UploadTracks stores each file as a blob and records a track for it.
// Files are processed in order; tracks saved before a failure are kept.
func (s *LibraryService) UploadTracks(ctx context.Context, userID string, uploads []Upload) ([]core.Track, error) {
	tracks := make([]core.Track, 0, len(uploads))
	ids := make([]string, 0, len(uploads))

	for _, u := range uploads {
		track, err := s.storeUpload(ctx, userID, u)
		if err != nil {
			return tracks, err
		}
		tracks = append(tracks, *track)
		ids = append(ids, track.ID)
	}

	if err := s.eventPub.PublishTracksUploaded(ctx, userID, ids); err != nil {
		s.log.Warn("failed to publish upload event", zap.String("user_id", userID), zap.Error(err))
	}

	return tracks, nil
}

func (s *LibraryService) storeUpload(ctx context.Context, userID string, u Upload) (*core.Track, error) {
	original := cleanFilename(u.Filename)
	now := s.now()
	id := uuid.New()
	filename := fmt.Sprintf("%d-%s-%s", now.UnixMilli(), hex.EncodeToString(id[:4]), original)

	body, err := u.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %q: %w", original, err)
	}
	defer body.Close()

	if err := s.blobs.Put(ctx, filename, body, u.Size, u.ContentType); err != nil {
		return nil, fmt.Errorf("failed to store upload %q: %w", original, err)
	}

	track := &core.Track{
		ID:           id.String(),
		UserID:       userID,
		Filename:     filename,
		OriginalName: original,
		URL:          s.blobs.URL(filename),
		Metadata:     map[string]any{},
		CreatedAt:    now.UTC(),
	}

	if err := s.tracks.SaveTrack(ctx, track); err != nil {
		if derr := s.blobs.Delete(ctx, filename); derr != nil {
			s.log.Warn("failed to remove orphaned blob", zap.String("blob", filename), zap.Error(derr))
		}
		return nil, fmt.Errorf("failed to save track: %w", err)
	}

	return track, nil
}

// Tracks returns the user's tracks
func (s *LibraryService) Tracks(ctx context.Context, userID string) ([]core.Track, error) {
	tracks, err := s.tracks.TracksByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}
	return tracks, nil
}

// Playlists returns the user's playlists
func (s *LibraryService) Playlists(ctx context.Context, userID string) ([]core.Playlist, error) {
	playlists, err := s.playlists.PlaylistsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load playlists: %w", err)
	}
	return playlists, nil
}

// CreatePlaylist creates a playlist from tracks the user owns
func (s *LibraryService) CreatePlaylist(ctx context.Context, userID, name string, trackIDs []string) (*core.Playlist, error) {
	owned, err := s.Tracks(ctx, userID)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(owned))
	for _, t := range owned {
		known[t.ID] = struct{}{}
	}
	for _, id := range trackIDs {
		if _, ok := known[id]; !ok {
			return nil, fmt.Errorf("track %s: %w", id, core.ErrNotFound)
		}
	}

	if trackIDs == nil {
		trackIDs = []string{}
	}

	playlist := &core.Playlist{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		TrackIDs:  trackIDs,
		CreatedAt: s.now().UTC(),
	}

	if err := s.playlists.SavePlaylist(ctx, playlist); err != nil {
		return nil, fmt.Errorf("failed to save playlist: %w", err)
	}

	return playlist, nil
}

// cleanFilename keeps only the base name of a client supplied file name
func cleanFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return "upload"
	}
	return name
}
