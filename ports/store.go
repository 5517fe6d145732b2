package ports

import (
	"context"

	"github.com/layer-3/encore/core"
)

// CredentialStore looks up login material by username.
// A missing user is reported as (nil, nil).
type CredentialStore interface {
	FindByUsername(ctx context.Context, username string) (*core.Credential, error)
	FindByID(ctx context.Context, userID string) (*core.Credential, error)
}

// TrackStore persists uploaded track documents
type TrackStore interface {
	SaveTrack(ctx context.Context, track *core.Track) error
	TracksByUser(ctx context.Context, userID string) ([]core.Track, error)
}

// PlaylistStore persists playlist documents
type PlaylistStore interface {
	SavePlaylist(ctx context.Context, playlist *core.Playlist) error
	PlaylistsByUser(ctx context.Context, userID string) ([]core.Playlist, error)
}
