package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/partyjukebox/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

var (
	secret = configVar[string]{
		envKey:  "SERVER_SECRET",
		flagKey: "secret",
		usage:   "Signing key for participant session tokens",
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
		usage:        "Server host",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 8080,
		usage:        "Server port",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
		usage:        "Logging level",
	}
	storage = configVar[string]{
		envKey:       "SERVER_STORAGE",
		flagKey:      "storage",
		defaultValue: app.StorageRedis,
		usage:        "Room storage backend (redis or postgres)",
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
		usage:        "Redis host",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
		usage:        "Redis port",
	}
	redisPassword = configVar[string]{
		envKey:  "REDIS_PASSWORD",
		flagKey: "redis-password",
		usage:   "Redis password",
	}
	redisDB = configVar[int]{
		envKey:  "REDIS_DB",
		flagKey: "redis-db",
		usage:   "Redis database",
	}
	postgresDSN = configVar[string]{
		envKey:  "POSTGRES_DSN",
		flagKey: "postgres-dsn",
		usage:   "PostgreSQL connection string",
	}
	streamURL = configVar[string]{
		envKey:       "STREAM_URL",
		flagKey:      "stream-url",
		defaultValue: "http://stream:4000",
		usage:        "Stream service base url, empty to use YouTube directly",
	}
	metadataTimeout = configVar[time.Duration]{
		envKey:       "METADATA_TIMEOUT",
		flagKey:      "metadata-timeout",
		defaultValue: 10 * time.Second,
		usage:        "Timeout for metadata lookups",
	}
	trackAddsLimit = configVar[int]{
		envKey:       "RATE_LIMIT_TRACK_ADDS",
		flagKey:      "rate-limit-track-adds",
		defaultValue: 5,
		usage:        "Track adds allowed per user per minute",
	}
	votesLimit = configVar[int]{
		envKey:       "RATE_LIMIT_VOTES",
		flagKey:      "rate-limit-votes",
		defaultValue: 30,
		usage:        "Votes allowed per user per minute",
	}
	broadcastFanout = configVar[bool]{
		envKey:  "BROADCAST_FANOUT",
		flagKey: "broadcast-fanout",
		usage:   "Relay room events between instances over Redis",
	}
	sessionTTL = configVar[time.Duration]{
		envKey:       "SESSION_TTL",
		flagKey:      "session-ttl",
		defaultValue: 24 * time.Hour,
		usage:        "Participant session token lifetime",
	}
)

func bind[T any](v configVar[T]) {
	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

func loadAppConfig() (*app.AppConfig, error) {
	configFile := pflag.String("config", "", "Optional config file (yaml, json or toml)")
	pflag.String(secret.flagKey, secret.defaultValue, secret.usage)
	pflag.String(host.flagKey, host.defaultValue, host.usage)
	pflag.Int(port.flagKey, port.defaultValue, port.usage)
	pflag.String(logLevel.flagKey, logLevel.defaultValue, logLevel.usage)
	pflag.String(storage.flagKey, storage.defaultValue, storage.usage)
	pflag.String(redisHost.flagKey, redisHost.defaultValue, redisHost.usage)
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, redisPort.usage)
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, redisPassword.usage)
	pflag.Int(redisDB.flagKey, redisDB.defaultValue, redisDB.usage)
	pflag.String(postgresDSN.flagKey, postgresDSN.defaultValue, postgresDSN.usage)
	pflag.String(streamURL.flagKey, streamURL.defaultValue, streamURL.usage)
	pflag.Duration(metadataTimeout.flagKey, metadataTimeout.defaultValue, metadataTimeout.usage)
	pflag.Int(trackAddsLimit.flagKey, trackAddsLimit.defaultValue, trackAddsLimit.usage)
	pflag.Int(votesLimit.flagKey, votesLimit.defaultValue, votesLimit.usage)
	pflag.Bool(broadcastFanout.flagKey, broadcastFanout.defaultValue, broadcastFanout.usage)
	pflag.Duration(sessionTTL.flagKey, sessionTTL.defaultValue, sessionTTL.usage)
	pflag.Parse()

	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	bind(secret)
	bind(host)
	bind(port)
	bind(logLevel)
	bind(storage)
	bind(redisHost)
	bind(redisPort)
	bind(redisPassword)
	bind(redisDB)
	bind(postgresDSN)
	bind(streamURL)
	bind(metadataTimeout)
	bind(trackAddsLimit)
	bind(votesLimit)
	bind(broadcastFanout)
	bind(sessionTTL)

	if *configFile != "" {
		viper.SetConfigFile(*configFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &app.AppConfig{
		Secret:             viper.GetString(secret.flagKey),
		Host:               viper.GetString(host.flagKey),
		Port:               viper.GetInt(port.flagKey),
		LogLevel:           viper.GetString(logLevel.flagKey),
		Storage:            viper.GetString(storage.flagKey),
		RedisHost:          viper.GetString(redisHost.flagKey),
		RedisPort:          viper.GetInt(redisPort.flagKey),
		RedisPassword:      viper.GetString(redisPassword.flagKey),
		RedisDB:            viper.GetInt(redisDB.flagKey),
		PostgresDSN:        viper.GetString(postgresDSN.flagKey),
		StreamURL:          viper.GetString(streamURL.flagKey),
		MetadataTimeout:    viper.GetDuration(metadataTimeout.flagKey),
		TrackAddsPerMinute: viper.GetInt(trackAddsLimit.flagKey),
		VotesPerMinute:     viper.GetInt(votesLimit.flagKey),
		BroadcastFanout:    viper.GetBool(broadcastFanout.flagKey),
		SessionTTL:         viper.GetDuration(sessionTTL.flagKey),
	}, nil
}

func main() {
	ctx := context.Background()

	appConfig, err := loadAppConfig()
	if err != nil {
		log.Fatal(err)
	}

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	if err := app.Run(ctx, appConfig); err != nil {
		log.Fatal(err)
	}
}
