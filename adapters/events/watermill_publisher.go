package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/layer-3/encore/ports"
)

const (
	TopicLogin          = "encore.login"
	TopicTracksUploaded = "encore.tracks_uploaded"
)

// LoginEvent is published after a successful login
type LoginEvent struct {
	UserID  string    `json:"user_id"`
	TokenID string    `json:"token_id"`
	At      time.Time `json:"at"`
}

// TracksUploadedEvent is published after offline tracks were stored
type TracksUploadedEvent struct {
	UserID   string    `json:"user_id"`
	TrackIDs []string  `json:"track_ids"`
	At       time.Time `json:"at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

// PublishLogin publishes a login event
func (p *WatermillPublisher) PublishLogin(ctx context.Context, userID string, tokenID string) error {
	return p.publish(ctx, TopicLogin, LoginEvent{
		UserID:  userID,
		TokenID: tokenID,
		At:      time.Now().UTC(),
	})
}

// PublishTracksUploaded publishes an upload event
func (p *WatermillPublisher) PublishTracksUploaded(ctx context.Context, userID string, trackIDs []string) error {
	return p.publish(ctx, TopicTracksUploaded, TracksUploadedEvent{
		UserID:   userID,
		TrackIDs: trackIDs,
		At:       time.Now().UTC(),
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// NopPublisher drops every event. Used when no event bus is configured.
type NopPublisher struct{}

func (NopPublisher) PublishLogin(context.Context, string, string) error { return nil }

func (NopPublisher) PublishTracksUploaded(context.Context, string, []string) error { return nil }
