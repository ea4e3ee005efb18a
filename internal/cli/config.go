package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mcoot/tictactoe-go/internal/client"
	"github.com/mcoot/tictactoe-go/internal/factory"
	"github.com/mcoot/tictactoe-go/internal/services/gameview"
	redisstorage "github.com/mcoot/tictactoe-go/internal/storage/redis"
)

// Config holds CLI configuration. Environment variables set the defaults and
// flags override them.
type Config struct {
	ServerURL      string        `env:"TTT_SERVER" envDefault:"http://localhost:3001"`
	Storage        string        `env:"TTT_STORAGE" envDefault:"file"`
	SessionFile    string        `env:"TTT_SESSION_FILE"`
	RedisURL       string        `env:"TTT_REDIS_URL" envDefault:"redis://localhost:6379"`
	RedisNamespace string        `env:"TTT_REDIS_NAMESPACE" envDefault:"ttt"`
	SessionTTL     time.Duration `env:"TTT_SESSION_TTL"`
	PollInterval   time.Duration `env:"TTT_POLL_INTERVAL" envDefault:"2s"`
	RequestTimeout time.Duration `env:"TTT_REQUEST_TIMEOUT" envDefault:"30s"`
	Output         string        `env:"TTT_OUTPUT" envDefault:"text"`
	LogLevel       string        `env:"TTT_LOG_LEVEL" envDefault:"warn"`
	Verbose        bool          `env:"TTT_VERBOSE"`
}

// LoadConfig reads the configuration from the environment
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}

// Validate checks values that flags and env can get wrong
func (c *Config) Validate() error {
	switch c.Output {
	case "text", "json":
	default:
		return fmt.Errorf("invalid output format %q: must be 'text' or 'json'", c.Output)
	}
	switch c.Storage {
	case factory.StorageTypeFile, factory.StorageTypeMemory, factory.StorageTypeRedis:
	default:
		return fmt.Errorf("invalid storage %q: must be 'file', 'memory' or 'redis'", c.Storage)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	return nil
}

// FactoryConfig maps the CLI configuration onto the application factory
func (c *Config) FactoryConfig(logger *slog.Logger) factory.Config {
	fc := factory.Config{
		ClientConfig: client.Config{
			BaseURL: c.ServerURL,
			Timeout: c.RequestTimeout,
		},
		ViewConfig: gameview.Config{
			PollInterval: c.PollInterval,
		},
		Logger:      logger,
		StorageType: c.Storage,
		SessionFile: c.SessionFile,
	}

	if c.Storage == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.RedisURL
		redisCfg.Namespace = c.RedisNamespace
		redisCfg.SessionTTL = c.SessionTTL
		fc.RedisConfig = &redisCfg
	}

	return fc
}

// NewLogger builds the text logger the CLI writes to w
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	if c.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
