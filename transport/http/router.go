package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/static"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/layer-3/encore/metrics"
	"github.com/layer-3/encore/ports"
	"github.com/layer-3/encore/service"
	"go.uber.org/zap"
)

// RouterConfig carries everything SetupRouter wires together
type RouterConfig struct {
	Auth    *service.AuthService
	Library *service.LibraryService
	Limiter ports.Limiter
	Log     *zap.Logger

	// UploadsDir is served under /uploads when set
	UploadsDir string

	// CORSOrigins lists allowed origins; empty allows any origin
	CORSOrigins []string

	// TrustedProxies are the IPs/CIDRs whose X-Forwarded-For is believed.
	// Empty means the client IP is always the connection's remote address.
	TrustedProxies []string

	Debug bool
}

// SetupRouter sets up the Gin router
func SetupRouter(cfg RouterConfig) (*gin.Engine, error) {
	if !cfg.Debug && gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	// Rate limit keys come from ClientIP, so forwarded headers only count
	// when they arrive through a configured proxy
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}
	router.Use(
		ginzap.Ginzap(cfg.Log, time.RFC3339, true),
		ginzap.RecoveryWithZap(cfg.Log, true),
		MetricsMiddleware(),
		cors.New(corsConfig(cfg.CORSOrigins)),
	)

	if cfg.UploadsDir != "" {
		router.Use(static.Serve("/uploads", static.LocalFile(cfg.UploadsDir, false)))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	// Create handlers
	auth := NewAuthHandlers(cfg.Auth, cfg.Log)
	library := NewLibraryHandlers(cfg.Library, cfg.Log)

	limit := RateLimitMiddleware(cfg.Limiter, cfg.Log)
	gate := AuthMiddleware(cfg.Auth, cfg.Log)

	router.POST("/login", limit, auth.Login)

	api := router.Group("/api")
	api.Use(limit)
	{
		api.POST("/login", auth.Login)
	}

	// Protected API routes
	protected := api.Group("")
	protected.Use(gate)
	{
		protected.GET("/me", auth.Me)
		protected.GET("/authorize", auth.Authorize)

		protected.GET("/playlists", library.Playlists)
		protected.POST("/playlists", library.CreatePlaylist)
		protected.GET("/tracks", library.Tracks)
		protected.POST("/upload-offline", library.UploadOffline)
		protected.GET("/user-offline-tracks/:userId", library.UserOfflineTracks)
	}

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
