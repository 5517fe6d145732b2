package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/layer-3/encore/core"
)

type loginEvent struct {
	UserID  string
	TokenID string
}

type spyPublisher struct {
	mu      sync.Mutex
	logins  []loginEvent
	uploads [][]string
	err     error
}

func (p *spyPublisher) PublishLogin(ctx context.Context, userID, tokenID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logins = append(p.logins, loginEvent{UserID: userID, TokenID: tokenID})
	return p.err
}

func (p *spyPublisher) PublishTracksUploaded(ctx context.Context, userID string, trackIDs []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.uploads = append(p.uploads, trackIDs)
	return p.err
}

type failingCredentialStore struct{}

var errStoreDown = errors.New("store unavailable")

func (failingCredentialStore) FindByUsername(context.Context, string) (*core.Credential, error) {
	return nil, errStoreDown
}

func (failingCredentialStore) FindByID(context.Context, string) (*core.Credential, error) {
	return nil, errStoreDown
}

type memBlobs struct {
	mu      sync.Mutex
	data    map[string]string
	failPut bool
}

func newMemBlobs() *memBlobs {
	return &memBlobs{data: make(map[string]string)}
}

func (b *memBlobs) Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	if b.failPut {
		return errors.New("disk full")
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[name] = string(raw)
	return nil
}

func (b *memBlobs) Delete(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, name)
	return nil
}

func (b *memBlobs) URL(name string) string {
	return "/uploads/" + name
}

type failingTrackStore struct{}

func (failingTrackStore) SaveTrack(context.Context, *core.Track) error {
	return errStoreDown
}

func (failingTrackStore) TracksByUser(context.Context, string) ([]core.Track, error) {
	return nil, errStoreDown
}

func upload(name, body string) Upload {
	return Upload{
		Filename:    name,
		Size:        int64(len(body)),
		ContentType: "audio/mpeg",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}
