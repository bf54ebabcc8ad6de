package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/partyjukebox/server/internal/repository/room"
)

// DB is implemented by *pgxpool.Pool and by pgxmock pools.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ room.Repository = (*repo)(nil)

type repo struct {
	db     DB
	logger *slog.Logger
}

func NewRepo(db DB, logger *slog.Logger) *repo {
	return &repo{
		db:     db,
		logger: logger,
	}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id                   TEXT PRIMARY KEY,
		code                 TEXT NOT NULL UNIQUE,
		host_secret          TEXT NOT NULL,
		is_active            BOOLEAN NOT NULL DEFAULT TRUE,
		now_playing_track_id TEXT,
		playback_status      TEXT NOT NULL DEFAULT 'idle',
		position_ms          INT NOT NULL DEFAULT 0,
		playback_updated_at  TIMESTAMPTZ NOT NULL,
		created_at           TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id           TEXT PRIMARY KEY,
		room_id      TEXT NOT NULL,
		role         TEXT NOT NULL,
		display_name TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		last_seen_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS tracks (
		id            TEXT PRIMARY KEY,
		room_id       TEXT NOT NULL,
		source        TEXT NOT NULL,
		video_id      TEXT NOT NULL,
		title         TEXT NOT NULL,
		channel       TEXT NOT NULL DEFAULT '',
		duration_ms   INT NOT NULL DEFAULT 0,
		thumbnail_url TEXT NOT NULL DEFAULT '',
		added_by      TEXT NOT NULL,
		up            INT NOT NULL DEFAULT 0,
		down          INT NOT NULL DEFAULT 0,
		score         INT NOT NULL DEFAULT 0,
		status        TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tracks_room ON tracks(room_id, created_at)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_tracks_room_video_active
		ON tracks(room_id, video_id) WHERE status <> 'played'`,
	`CREATE TABLE IF NOT EXISTS votes (
		id         TEXT PRIMARY KEY,
		room_id    TEXT NOT NULL,
		track_id   TEXT NOT NULL REFERENCES tracks(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL,
		value      INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		UNIQUE (track_id, user_id)
	)`,
}

func (r repo) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}

	return nil
}
