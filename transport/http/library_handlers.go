package http

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/encore/core"
	"github.com/layer-3/encore/metrics"
	"github.com/layer-3/encore/service"
	"go.uber.org/zap"
)

// LibraryHandlers contains HTTP handlers for track and playlist endpoints
type LibraryHandlers struct {
	library *service.LibraryService
	log     *zap.Logger
}

// NewLibraryHandlers creates new library handlers
func NewLibraryHandlers(library *service.LibraryService, log *zap.Logger) *LibraryHandlers {
	return &LibraryHandlers{
		library: library,
		log:     log,
	}
}

// UploadOffline stores the multipart "files" of the request as tracks of the caller
func (h *LibraryHandlers) UploadOffline(c *gin.Context) {
	userID := c.GetString(ContextUserID)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// Older clients still send their user ID; it has to agree with the token
	if claimed := form.Value["userId"]; len(claimed) > 0 && claimed[0] != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files uploaded"})
		return
	}

	uploads := make([]service.Upload, 0, len(files))
	for _, fh := range files {
		uploads = append(uploads, toUpload(fh))
	}

	tracks, err := h.library.UploadTracks(c.Request.Context(), userID, uploads)
	metrics.TracksUploaded.Add(float64(len(tracks)))
	if err != nil {
		h.log.Error("failed to save tracks", zap.String("user_id", userID), zap.Int("saved", len(tracks)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save tracks"})
		return
	}

	c.JSON(http.StatusOK, tracks)
}

func toUpload(fh *multipart.FileHeader) service.Upload {
	return service.Upload{
		Filename:    fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// UserOfflineTracks lists the tracks of the user in the path, which must be the caller
func (h *LibraryHandlers) UserOfflineTracks(c *gin.Context) {
	if c.Param("userId") != c.GetString(ContextUserID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}
	h.Tracks(c)
}

// Tracks lists the caller's tracks
func (h *LibraryHandlers) Tracks(c *gin.Context) {
	userID := c.GetString(ContextUserID)

	tracks, err := h.library.Tracks(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("failed to load tracks", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
		return
	}

	c.JSON(http.StatusOK, tracks)
}

// Playlists lists the caller's playlists
func (h *LibraryHandlers) Playlists(c *gin.Context) {
	userID := c.GetString(ContextUserID)

	playlists, err := h.library.Playlists(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("failed to load playlists", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
		return
	}

	c.JSON(http.StatusOK, playlists)
}

// CreatePlaylistRequest is the body of POST /api/playlists
type CreatePlaylistRequest struct {
	Name     string   `json:"name" binding:"required,max=200"`
	TrackIDs []string `json:"trackIds"`
}

// CreatePlaylist creates a playlist for the caller
func (h *LibraryHandlers) CreatePlaylist(c *gin.Context) {
	var req CreatePlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userID := c.GetString(ContextUserID)
	playlist, err := h.library.CreatePlaylist(c.Request.Context(), userID, req.Name, req.TrackIDs)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Track not found"})
			return
		}
		h.log.Error("failed to create playlist", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
		return
	}

	c.JSON(http.StatusCreated, playlist)
}
