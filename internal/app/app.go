package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/partyjukebox/server/internal/broadcast"
	"github.com/partyjukebox/server/internal/controller"
	"github.com/partyjukebox/server/internal/metadata"
	"github.com/partyjukebox/server/internal/ratelimit"
	"github.com/partyjukebox/server/internal/repository/connection/inmemory"
	roomrepo "github.com/partyjukebox/server/internal/repository/room"
	"github.com/partyjukebox/server/internal/repository/room/postgres"
	roomRedis "github.com/partyjukebox/server/internal/repository/room/redis"
	"github.com/partyjukebox/server/internal/service/room"
	"github.com/partyjukebox/server/pkg/ctxlogger"
	"github.com/partyjukebox/server/pkg/redisclient"
	"github.com/partyjukebox/server/pkg/streamclient"
	"github.com/partyjukebox/server/pkg/ytvideodata"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	StorageRedis    = "redis"
	StoragePostgres = "postgres"

	shutdownTimeout = 30 * time.Second
)

type AppConfig struct {
	Secret             string        `json:"-"`
	Host               string        `json:"host"`
	Port               int           `json:"port"`
	LogLevel           string        `json:"log_level"`
	Storage            string        `json:"storage"`
	RedisHost          string        `json:"redis_host"`
	RedisPort          int           `json:"redis_port"`
	RedisPassword      string        `json:"-"`
	RedisDB            int           `json:"redis_db"`
	PostgresDSN        string        `json:"-"`
	StreamURL          string        `json:"stream_url"`
	MetadataTimeout    time.Duration `json:"metadata_timeout"`
	TrackAddsPerMinute int           `json:"rate_limit_track_adds"`
	VotesPerMinute     int           `json:"rate_limit_votes"`
	BroadcastFanout    bool          `json:"broadcast_fanout"`
	SessionTTL         time.Duration `json:"session_ttl"`
}

func (cfg *AppConfig) Validate() error {
	var errs []error

	if cfg.Secret == "" {
		errs = append(errs, errors.New("secret must not be empty"))
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d is out of range", cfg.Port))
	}
	if cfg.TrackAddsPerMinute < 1 {
		errs = append(errs, errors.New("track adds limit must be greater than 0"))
	}
	if cfg.VotesPerMinute < 1 {
		errs = append(errs, errors.New("votes limit must be greater than 0"))
	}
	if cfg.MetadataTimeout <= 0 {
		errs = append(errs, errors.New("metadata timeout must be greater than 0"))
	}
	if cfg.SessionTTL <= 0 {
		errs = append(errs, errors.New("session ttl must be greater than 0"))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level %q", cfg.LogLevel))
	}

	switch cfg.Storage {
	case StorageRedis:
	case StoragePostgres:
		if cfg.PostgresDSN == "" {
			errs = append(errs, errors.New("postgres dsn is required for postgres storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage %q", cfg.Storage))
	}

	return errors.Join(errs...)
}

func newLogger(level string) *slog.Logger {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		logLevel = slog.LevelInfo
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(&h)
}

// newRoomRepo returns the configured store and a func releasing its
// resources.
func newRoomRepo(ctx context.Context, cfg *AppConfig, rc *redis.Client, logger *slog.Logger) (roomrepo.Repository, func(), error) {
	if cfg.Storage != StoragePostgres {
		return roomRedis.NewRepo(rc, logger), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	repo := postgres.NewRepo(pool, logger)
	if err := repo.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to migrate postgres: %w", err)
	}

	return repo, pool.Close, nil
}

type resolver interface {
	Resolve(ctx context.Context, reference string) (metadata.Metadata, error)
	Search(ctx context.Context, query string) (metadata.Metadata, error)
}

func newResolver(cfg *AppConfig) resolver {
	hc := &http.Client{Timeout: cfg.MetadataTimeout}

	if cfg.StreamURL == "" {
		return metadata.NewYoutubeResolver(ytvideodata.New(hc), cfg.MetadataTimeout)
	}

	return metadata.NewStreamResolver(streamclient.New(cfg.StreamURL, hc), cfg.MetadataTimeout)
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	roomRepo, closeRepo, err := newRoomRepo(ctx, cfg, rc, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	var broadcastOpts []broadcast.Option
	if cfg.BroadcastFanout {
		broadcastOpts = append(broadcastOpts, broadcast.WithRedisFanout(rc))
	}
	broadcaster := broadcast.New(inmemory.NewRepo(logger), logger, broadcastOpts...)

	roomService := room.NewService(
		roomRepo,
		broadcaster,
		ratelimit.New(rc, logger),
		newResolver(cfg),
		room.Config{
			Secret:             cfg.Secret,
			TrackAddsPerMinute: cfg.TrackAddsPerMinute,
			VotesPerMinute:     cfg.VotesPerMinute,
			SessionTTL:         cfg.SessionTTL,
		},
		logger,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           controller.NewController(roomService, logger).GetMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.InfoContext(gCtx, "starting server", "address", server.Addr, "storage", cfg.Storage)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return broadcaster.Run(gCtx)
	})

	// graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.InfoContext(shutdownCtx, "shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
		return nil
	})

	return g.Wait()
}
