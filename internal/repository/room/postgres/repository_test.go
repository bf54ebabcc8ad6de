package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/partyjukebox/server/internal/domain"
	"github.com/partyjukebox/server/internal/repository/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) (*repo, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewRepo(mock, slog.New(slog.NewTextHandler(io.Discard, nil))), mock
}

func TestMigrate(t *testing.T) {
	r, mock := newTestRepo(t)

	for range schema {
		mock.ExpectExec("CREATE").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	}

	require.NoError(t, r.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRoom(t *testing.T) {
	ctx := context.Background()
	params := &room.CreateRoomParams{RoomID: "room-1", Code: "ABC234", HostSecret: "secret", CreatedAt: testNow}

	t.Run("created", func(t *testing.T) {
		r, mock := newTestRepo(t)
		mock.ExpectExec("INSERT INTO rooms").
			WithArgs("room-1", "ABC234", "secret", "idle", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, r.CreateRoom(ctx, params))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("code taken", func(t *testing.T) {
		r, mock := newTestRepo(t)
		mock.ExpectExec("INSERT INTO rooms").
			WithArgs("room-1", "ABC234", "secret", "idle", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		assert.ErrorIs(t, r.CreateRoom(ctx, params), room.ErrCodeTaken)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func roomRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "code", "host_secret", "is_active", "now_playing_track_id",
		"playback_status", "position_ms", "playback_updated_at", "created_at",
	})
}

func TestGetRoomByCode(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		r, mock := newTestRepo(t)
		nowPlaying := "t1"
		mock.ExpectQuery("SELECT .* FROM rooms WHERE code").
			WithArgs("ABC234").
			WillReturnRows(roomRows().AddRow(
				"room-1", "ABC234", "secret", true, &nowPlaying,
				"playing", 1500, testNow, testNow,
			))

		got, err := r.GetRoomByCode(ctx, "ABC234")
		require.NoError(t, err)
		assert.Equal(t, "room-1", got.ID)
		require.NotNil(t, got.NowPlayingTrackID)
		assert.Equal(t, "t1", *got.NowPlayingTrackID)
		assert.Equal(t, domain.PlaybackPlaying, got.PlaybackState.Status)
		assert.Equal(t, 1500, got.PlaybackState.PositionMs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		r, mock := newTestRepo(t)
		mock.ExpectQuery("SELECT .* FROM rooms WHERE code").
			WithArgs("ZZZZZZ").
			WillReturnError(pgx.ErrNoRows)

		_, err := r.GetRoomByCode(ctx, "ZZZZZZ")
		assert.ErrorIs(t, err, room.ErrRoomNotFound)
	})
}

func TestCreateTrackDuplicateVideo(t *testing.T) {
	r, mock := newTestRepo(t)
	args := make([]any, 14)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	mock.ExpectExec("INSERT INTO tracks").WithArgs(args...).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err := r.CreateTrack(context.Background(), &room.CreateTrackParams{Track: domain.Track{
		ID:        "t2",
		RoomID:    "room-1",
		VideoID:   "vid",
		Status:    domain.TrackReady,
		CreatedAt: testNow,
	}})
	assert.ErrorIs(t, err, room.ErrVideoQueued)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTracks(t *testing.T) {
	r, mock := newTestRepo(t)
	mock.ExpectQuery("SELECT .* FROM tracks").
		WithArgs("room-1").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "room_id", "source", "video_id", "title", "channel", "duration_ms",
			"thumbnail_url", "added_by", "up", "down", "score", "status", "created_at",
		}).
			AddRow("t1", "room-1", "youtube", "v1", "one", "ch", 1000, "", "u1", 2, 1, 1, "ready", testNow).
			AddRow("t2", "room-1", "youtube", "v2", "two", "ch", 2000, "", "u1", 0, 0, 0, "played", testNow))

	tracks, err := r.GetTracks(context.Background(), "room-1")
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, domain.VoteSummary{Up: 2, Down: 1}, tracks[0].Votes)
	assert.Equal(t, domain.TrackPlayed, tracks[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordVote(t *testing.T) {
	ctx := context.Background()
	params := &room.RecordVoteParams{
		VoteID:    "vote-1",
		RoomID:    "room-1",
		TrackID:   "t1",
		UserID:    "u1",
		Value:     domain.VoteDown,
		CreatedAt: testNow,
	}

	t.Run("recounts", func(t *testing.T) {
		r, mock := newTestRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT 1 FROM tracks").WithArgs("t1").
			WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))
		mock.ExpectExec("INSERT INTO votes").
			WithArgs("vote-1", "room-1", "t1", "u1", -1, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectQuery("UPDATE tracks t").WithArgs("t1").
			WillReturnRows(pgxmock.NewRows([]string{"up", "down"}).AddRow(3, 1))
		mock.ExpectCommit()

		summary, err := r.RecordVote(ctx, params)
		require.NoError(t, err)
		assert.Equal(t, domain.VoteSummary{Up: 3, Down: 1}, summary)
		assert.Equal(t, 2, summary.Score())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing track", func(t *testing.T) {
		r, mock := newTestRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT 1 FROM tracks").WithArgs("t1").WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		_, err := r.RecordVote(ctx, params)
		assert.ErrorIs(t, err, room.ErrTrackNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRemoveTrack(t *testing.T) {
	r, mock := newTestRepo(t)
	mock.ExpectExec("DELETE FROM tracks").WithArgs("t1", "room-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := r.RemoveTrack(context.Background(), &room.RemoveTrackParams{
		Track: room.TrackRef{TrackID: "t1", RoomID: "room-1", VideoID: "v1"},
	})
	assert.ErrorIs(t, err, room.ErrTrackNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyTransition(t *testing.T) {
	ctx := context.Background()
	current, next := "t1", "t2"

	t.Run("advances", func(t *testing.T) {
		r, mock := newTestRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT now_playing_track_id FROM rooms").WithArgs("room-1").
			WillReturnRows(pgxmock.NewRows([]string{"now_playing_track_id"}).AddRow(&current))
		mock.ExpectExec("UPDATE tracks SET status").WithArgs("t1", "played").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec("UPDATE tracks SET status").WithArgs("t2", "playing").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec("UPDATE rooms").
			WithArgs("room-1", "buffering", 0, pgxmock.AnyArg(), &next).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		err := r.ApplyTransition(ctx, &room.TransitionParams{
			RoomID:                    "room-1",
			ExpectedNowPlayingTrackID: &current,
			Played:                    []room.TrackRef{{TrackID: "t1", RoomID: "room-1", VideoID: "v1"}},
			Playing:                   &room.TrackRef{TrackID: "t2", RoomID: "room-1", VideoID: "v2"},
			SetNowPlaying:             true,
			NowPlayingTrackID:         &next,
			Playback:                  domain.NewPlaybackState(domain.PlaybackBuffering, 0, testNow),
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale now playing", func(t *testing.T) {
		r, mock := newTestRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT now_playing_track_id FROM rooms").WithArgs("room-1").
			WillReturnRows(pgxmock.NewRows([]string{"now_playing_track_id"}).AddRow(&next))
		mock.ExpectRollback()

		err := r.ApplyTransition(ctx, &room.TransitionParams{
			RoomID:                    "room-1",
			ExpectedNowPlayingTrackID: &current,
			Played:                    []room.TrackRef{{TrackID: "t1", RoomID: "room-1", VideoID: "v1"}},
			Playing:                   &room.TrackRef{TrackID: "t2", RoomID: "room-1", VideoID: "v2"},
			SetNowPlaying:             true,
			NowPlayingTrackID:         &next,
			Playback:                  domain.NewPlaybackState(domain.PlaybackBuffering, 0, testNow),
		})
		assert.ErrorIs(t, err, room.ErrStaleRoom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("removes now playing", func(t *testing.T) {
		r, mock := newTestRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT now_playing_track_id FROM rooms").WithArgs("room-1").
			WillReturnRows(pgxmock.NewRows([]string{"now_playing_track_id"}).AddRow(&current))
		mock.ExpectExec("DELETE FROM tracks").WithArgs("t1", "room-1").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectExec("UPDATE rooms").
			WithArgs("room-1", "idle", 0, pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		err := r.ApplyTransition(ctx, &room.TransitionParams{
			RoomID:                    "room-1",
			ExpectedNowPlayingTrackID: &current,
			Removed:                   &room.TrackRef{TrackID: "t1", RoomID: "room-1", VideoID: "v1"},
			SetNowPlaying:             true,
			Playback:                  domain.NewPlaybackState(domain.PlaybackIdle, 0, testNow),
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed removal writes nothing", func(t *testing.T) {
		r, mock := newTestRepo(t)
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT now_playing_track_id FROM rooms").WithArgs("room-1").
			WillReturnRows(pgxmock.NewRows([]string{"now_playing_track_id"}).AddRow(&current))
		mock.ExpectExec("DELETE FROM tracks").WithArgs("t1", "room-1").
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		err := r.ApplyTransition(ctx, &room.TransitionParams{
			RoomID:                    "room-1",
			ExpectedNowPlayingTrackID: &current,
			Removed:                   &room.TrackRef{TrackID: "t1", RoomID: "room-1", VideoID: "v1"},
			SetNowPlaying:             true,
			Playback:                  domain.NewPlaybackState(domain.PlaybackIdle, 0, testNow),
		})
		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
