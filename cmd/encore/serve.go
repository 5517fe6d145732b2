package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/layer-3/encore/adapters/blob"
	"github.com/layer-3/encore/adapters/credentials"
	"github.com/layer-3/encore/adapters/events"
	"github.com/layer-3/encore/adapters/limiter"
	"github.com/layer-3/encore/adapters/store"
	"github.com/layer-3/encore/adapters/tokenizer"
	"github.com/layer-3/encore/config"
	"github.com/layer-3/encore/ports"
	"github.com/layer-3/encore/service"
	transport "github.com/layer-3/encore/transport/http"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newServeCommand() *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if debug {
				cfg.Debug = true
			}

			log := setupLogger(cfg.Debug)
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, log)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging and gin debug mode")
	return cmd
}

// backends are the stores selected by cfg.Backend
type backends struct {
	credentials interface {
		ports.CredentialStore
		credentials.Writer
	}
	limiter   ports.Limiter
	tracks    ports.TrackStore
	playlists ports.PlaylistStore
	publisher message.Publisher
	closers   []func() error
}

func (b *backends) close(log *zap.Logger) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			log.Warn("failed to close backend", zap.Error(err))
		}
	}
}

func newBackends(ctx context.Context, cfg *config.Config, log *zap.Logger) (*backends, error) {
	wmLogger := events.NewZapLoggerAdapter(log)
	limits := limiter.Config{Window: cfg.RateLimit.Window(), Max: cfg.RateLimit.Max}

	if cfg.Backend == config.BackendMemory {
		docs := store.NewMemoryStore()
		lim := limiter.NewMemoryLimiter(limits)
		pubsub := gochannel.NewGoChannel(gochannel.Config{}, wmLogger)

		return &backends{
			credentials: credentials.NewMemoryStore(),
			limiter:     lim,
			tracks:      docs,
			playlists:   docs,
			publisher:   pubsub,
			closers: []func() error{
				func() error { lim.Stop(); return nil },
				pubsub.Close,
			},
		}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: client,
		},
		wmLogger,
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to create Redis publisher: %w", err)
	}

	docs := store.NewRedisStore(client)
	return &backends{
		credentials: credentials.NewRedisStore(client),
		limiter:     limiter.NewRedisLimiter(client, limits),
		tracks:      docs,
		playlists:   docs,
		publisher:   publisher,
		closers:     []func() error{client.Close, publisher.Close},
	}, nil
}

func newBlobStore(ctx context.Context, cfg config.BlobConfig) (ports.BlobStore, string, error) {
	if cfg.Backend == config.BlobMinio {
		s, err := blob.NewMinioStore(ctx, blob.MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
			PublicURL: cfg.Minio.PublicURL,
		})
		return s, "", err
	}

	s, err := blob.NewDiskStore(cfg.UploadsDir, "/uploads")
	if err != nil {
		return nil, "", err
	}
	return s, s.Root(), nil
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	b, err := newBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close(log)

	hasher := credentials.NewBcryptHasher(bcrypt.DefaultCost)
	if err := credentials.Seed(ctx, b.credentials, hasher, cfg.SeedUsers); err != nil {
		return err
	}

	blobs, uploadsDir, err := newBlobStore(ctx, cfg.Blob)
	if err != nil {
		return err
	}

	tok := tokenizer.NewJWTTokenizer([]byte(cfg.Token.Secret), tokenizer.WithValidity(cfg.Token.Validity))
	eventPub := events.NewWatermillPublisher(b.publisher)

	router, err := transport.SetupRouter(transport.RouterConfig{
		Auth:           service.NewAuthService(b.credentials, hasher, tok, eventPub, log),
		Library:        service.NewLibraryService(b.tracks, b.playlists, blobs, eventPub, log),
		Limiter:        b.limiter,
		Log:            log,
		UploadsDir:     uploadsDir,
		CORSOrigins:    cfg.CORSOrigins,
		TrustedProxies: cfg.TrustedProxies,
		Debug:          cfg.Debug,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server",
			zap.String("address", cfg.ListenAddress),
			zap.String("backend", cfg.Backend),
			zap.String("blob", cfg.Blob.Backend))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
