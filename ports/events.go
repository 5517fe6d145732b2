package ports

import "context"

// EventPublisher publishes events to notify other instances
type EventPublisher interface {
	PublishLogin(ctx context.Context, userID string, tokenID string) error
	PublishTracksUploaded(ctx context.Context, userID string, trackIDs []string) error
}
