package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *AppConfig {
	return &AppConfig{
		Secret:             "secret",
		Host:               "0.0.0.0",
		Port:               8080,
		LogLevel:           "INFO",
		Storage:            StorageRedis,
		RedisHost:          "localhost",
		RedisPort:          6379,
		StreamURL:          "http://stream:4000",
		MetadataTimeout:    10 * time.Second,
		TrackAddsPerMinute: 5,
		VotesPerMinute:     30,
		SessionTTL:         24 * time.Hour,
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	for name, mutate := range map[string]func(*AppConfig){
		"empty secret":          func(c *AppConfig) { c.Secret = "" },
		"zero track adds limit": func(c *AppConfig) { c.TrackAddsPerMinute = 0 },
		"negative votes limit":  func(c *AppConfig) { c.VotesPerMinute = -1 },
		"zero metadata timeout": func(c *AppConfig) { c.MetadataTimeout = 0 },
		"zero session ttl":      func(c *AppConfig) { c.SessionTTL = 0 },
		"unknown storage":       func(c *AppConfig) { c.Storage = "mongo" },
		"postgres without dsn":  func(c *AppConfig) { c.Storage = StoragePostgres },
		"bad log level":         func(c *AppConfig) { c.LogLevel = "LOUD" },
		"bad port":              func(c *AppConfig) { c.Port = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := validConfig()
	cfg.Storage = StoragePostgres
	cfg.PostgresDSN = "postgres://localhost/jukebox"
	assert.NoError(t, cfg.Validate())
}

func TestNewResolver(t *testing.T) {
	cfg := validConfig()
	assert.NotNil(t, newResolver(cfg))

	cfg.StreamURL = ""
	assert.NotNil(t, newResolver(cfg))
}
