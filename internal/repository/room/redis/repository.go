package redis

import (
	"log/slog"

	"github.com/partyjukebox/server/internal/repository/room"
	"github.com/redis/go-redis/v9"
)

var _ room.Repository = (*repo)(nil)

type repo struct {
	rc                *redis.Client
	logger            *slog.Logger
	claimScript       *redis.Script
	createTrackScript *redis.Script
	removeTrackScript *redis.Script
	recordVoteScript  *redis.Script
}

func NewRepo(rc *redis.Client, logger *slog.Logger) *repo {
	return &repo{
		rc:     rc,
		logger: logger,
		// KEYS[1] unique index, KEYS[2] hash; ARGV[1] owner id, ARGV[2..] field/value pairs
		claimScript: redis.NewScript(`
			if redis.call('SET', KEYS[1], ARGV[1], 'NX') == false then
				return 0
			end
			redis.call('HSET', KEYS[2], unpack(ARGV, 2))
			return 1
		`),
		// KEYS[1] video index, KEYS[2] track hash, KEYS[3] room track set
		// ARGV[1] track id, ARGV[2] created at score, ARGV[3..] field/value pairs
		createTrackScript: redis.NewScript(`
			if redis.call('SET', KEYS[1], ARGV[1], 'NX') == false then
				return 0
			end
			redis.call('HSET', KEYS[2], unpack(ARGV, 3))
			redis.call('ZADD', KEYS[3], ARGV[2], ARGV[1])
			return 1
		`),
		// KEYS[1] track hash, KEYS[2] votes, KEYS[3] vote meta, KEYS[4] room track set, KEYS[5] video index
		// ARGV[1] track id
		removeTrackScript: redis.NewScript(`
			if redis.call('DEL', KEYS[1]) == 0 then
				return 0
			end
			redis.call('DEL', KEYS[2], KEYS[3])
			redis.call('ZREM', KEYS[4], ARGV[1])
			if redis.call('GET', KEYS[5]) == ARGV[1] then
				redis.call('DEL', KEYS[5])
			end
			return 1
		`),
		// KEYS[1] track hash, KEYS[2] votes, KEYS[3] vote meta
		// ARGV[1] user id, ARGV[2] value, ARGV[3] vote meta
		recordVoteScript: redis.NewScript(`
			if redis.call('EXISTS', KEYS[1]) == 0 then
				return false
			end
			redis.call('HSET', KEYS[2], ARGV[1], ARGV[2])
			redis.call('HSETNX', KEYS[3], ARGV[1], ARGV[3])
			local up, down = 0, 0
			for _, v in ipairs(redis.call('HVALS', KEYS[2])) do
				if v == '1' then
					up = up + 1
				elseif v == '-1' then
					down = down + 1
				end
			end
			redis.call('HSET', KEYS[1], 'up', up, 'down', down, 'score', up - down)
			return {up, down}
		`),
	}
}
