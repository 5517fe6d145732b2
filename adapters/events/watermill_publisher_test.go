package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newPubSub(t *testing.T) *gochannel.GoChannel {
	t.Helper()
	ps := gochannel.NewGoChannel(gochannel.Config{}, NewZapLoggerAdapter(zap.NewNop()))
	t.Cleanup(func() { ps.Close() })
	return ps
}

func receive(t *testing.T, ch <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg := <-ch:
		msg.Ack()
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestPublishLogin(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ps := newPubSub(t)
	ch, err := ps.Subscribe(ctx, TopicLogin)
	require.NoError(t, err)

	pub := NewWatermillPublisher(ps)
	require.NoError(t, pub.PublishLogin(ctx, "1", "jti-1"))

	var event LoginEvent
	require.NoError(t, json.Unmarshal(receive(t, ch).Payload, &event))
	assert.Equal(t, "1", event.UserID)
	assert.Equal(t, "jti-1", event.TokenID)
	assert.WithinDuration(t, time.Now(), event.At, 5*time.Second)
}

func TestPublishTracksUploaded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ps := newPubSub(t)
	ch, err := ps.Subscribe(ctx, TopicTracksUploaded)
	require.NoError(t, err)

	pub := NewWatermillPublisher(ps)
	require.NoError(t, pub.PublishTracksUploaded(ctx, "1", []string{"a", "b"}))

	var event TracksUploadedEvent
	require.NoError(t, json.Unmarshal(receive(t, ch).Payload, &event))
	assert.Equal(t, "1", event.UserID)
	assert.Equal(t, []string{"a", "b"}, event.TrackIDs)
}

func TestPublish_ClosedPublisher(t *testing.T) {
	ps := gochannel.NewGoChannel(gochannel.Config{}, NewZapLoggerAdapter(zap.NewNop()))
	require.NoError(t, ps.Close())

	err := NewWatermillPublisher(ps).PublishLogin(context.Background(), "1", "jti")
	assert.Error(t, err)
}

func TestNopPublisher(t *testing.T) {
	var p NopPublisher
	assert.NoError(t, p.PublishLogin(context.Background(), "1", "x"))
	assert.NoError(t, p.PublishTracksUploaded(context.Background(), "1", nil))
}

func TestZapLoggerAdapter(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	adapter := NewZapLoggerAdapter(zap.New(core))

	adapter.With(map[string]interface{}{"topic": "t"}).Info("published", map[string]interface{}{"uuid": "u"})
	adapter.Error("failed", assert.AnError, nil)
	adapter.Trace("trace", nil)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "published", entries[0].Message)
	assert.Equal(t, "t", entries[0].ContextMap()["topic"])
	assert.Equal(t, "u", entries[0].ContextMap()["uuid"])
	assert.Equal(t, "watermill", entries[0].LoggerName)
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
	assert.Equal(t, zap.DebugLevel, entries[2].Level)
}
