package core

import "time"

// Track is an audio file a user uploaded for offline playback
type Track struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userId"`
	Filename     string         `json:"filename"`     // Name the blob is stored under
	OriginalName string         `json:"originalname"` // Name the user uploaded
	URL          string         `json:"url"`          // Streaming URL
	Metadata     map[string]any `json:"metadata"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// Playlist is an ordered list of a user's tracks
type Playlist struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	TrackIDs  []string  `json:"trackIds"`
	CreatedAt time.Time `json:"createdAt"`
}
