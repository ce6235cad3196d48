package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/makeitmeme/go/internal/render"
	"github.com/mcdev12/makeitmeme/go/internal/session"
	"github.com/mcdev12/makeitmeme/go/internal/store"
	"github.com/mcdev12/makeitmeme/go/internal/transport"
)

// Config is everything the memeclient binary needs
type Config struct {
	LogLevel   string `yaml:"log_level"`
	PlayerName string `yaml:"player_name"`

	Server  transport.Config `yaml:"server"`
	Session session.Config   `yaml:"session"`
	Store   store.Config     `yaml:"store"`
	NATS    NATSConfig       `yaml:"nats"`
	Status  StatusConfig     `yaml:"status"`
}

// NATSConfig turns view publishing on when Enabled
type NATSConfig struct {
	Enabled           bool `yaml:"enabled"`
	render.NATSConfig `yaml:",inline"`
}

// StatusConfig controls the local status endpoint. Empty Addr disables it.
type StatusConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		LogLevel: "info",
		Server:   transport.DefaultConfig(),
		Session:  session.DefaultConfig(),
		Store:    store.DefaultConfig(),
		NATS:     NATSConfig{NATSConfig: render.DefaultNATSConfig()},
		Status:   StatusConfig{Addr: "127.0.0.1:8089"},
	}
}

// Load reads .env, then the YAML file at path if it exists, then
// MEMECLIENT_* environment overrides
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()

	if cfg.Store.Backend == store.BackendPostgres && cfg.Store.DatabaseURL == "" {
		cfg.Store.DatabaseURL = NewDatabaseConfigFromEnv().DSN()
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug().Str("path", path).Msg("no config file, using defaults")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnv("MEMECLIENT_LOG_LEVEL", c.LogLevel)
	c.PlayerName = getEnv("MEMECLIENT_PLAYER_NAME", c.PlayerName)

	c.Server.URL = getEnv("MEMECLIENT_SERVER_URL", c.Server.URL)
	c.Server.ClientID = getEnv("MEMECLIENT_CLIENT_ID", c.Server.ClientID)

	c.Store.Backend = getEnv("MEMECLIENT_STORE_BACKEND", c.Store.Backend)
	c.Store.Path = getEnv("MEMECLIENT_STORE_PATH", c.Store.Path)
	c.Store.Namespace = getEnv("MEMECLIENT_STORE_NAMESPACE", c.Store.Namespace)
	c.Store.DatabaseURL = getEnv("MEMECLIENT_DATABASE_URL", c.Store.DatabaseURL)
	c.Store.Table = getEnv("MEMECLIENT_STORE_TABLE", c.Store.Table)

	c.NATS.Enabled = getEnvAsBool("MEMECLIENT_NATS_ENABLED", c.NATS.Enabled)
	c.NATS.URL = getEnv("MEMECLIENT_NATS_URL", c.NATS.URL)
	c.NATS.SubjectPrefix = getEnv("MEMECLIENT_NATS_SUBJECT_PREFIX", c.NATS.SubjectPrefix)

	c.Status.Addr = getEnv("MEMECLIENT_STATUS_ADDR", c.Status.Addr)

	c.Session.RerollsPerRound = getEnvAsInt("MEMECLIENT_REROLLS_PER_ROUND", c.Session.RerollsPerRound)
	c.Session.OwnItemSkipDelay = getEnvAsDuration("MEMECLIENT_OWN_ITEM_SKIP_DELAY", c.Session.OwnItemSkipDelay)
	c.Session.ResumeTimerSeconds = getEnvAsInt("MEMECLIENT_RESUME_TIMER_SECONDS", c.Session.ResumeTimerSeconds)
	c.Session.PlaceholderText = getEnv("MEMECLIENT_PLACEHOLDER_TEXT", c.Session.PlaceholderText)
}

// Level parses LogLevel, falling back to info
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		return zerolog.InfoLevel
	}
	return level
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
