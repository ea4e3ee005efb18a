package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/tictactoe-go/internal/client"
	"github.com/mcoot/tictactoe-go/internal/dependencies/clock"
	"github.com/mcoot/tictactoe-go/internal/services/gameview"
	"github.com/mcoot/tictactoe-go/internal/services/history"
	"github.com/mcoot/tictactoe-go/internal/services/leaderboard"
	"github.com/mcoot/tictactoe-go/internal/services/session"
	"github.com/mcoot/tictactoe-go/internal/storage"
	filestorage "github.com/mcoot/tictactoe-go/internal/storage/file"
	"github.com/mcoot/tictactoe-go/internal/storage/memory"
	redisstorage "github.com/mcoot/tictactoe-go/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeFile   = "file"
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Client *client.Client
	Logger *slog.Logger

	// Services
	Session     *session.Store
	Leaderboard *leaderboard.Service
	History     *history.Service

	viewCfg gameview.Config
	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// ClientConfig holds the API server URL and timeout
	// If zero value, defaults to client.DefaultConfig()
	ClientConfig client.Config
	// ViewConfig holds game view settings
	// If zero value, defaults to gameview.DefaultConfig()
	ViewConfig gameview.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the credential storage ("file", "memory" or "redis")
	// If empty, defaults to "file"
	StorageType string
	// SessionFile is the file storage path (optional, file storage only)
	SessionFile string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired. The session
// store is created but not initialized.
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var (
		store   storage.Storage
		closers []io.Closer
	)
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeFile
	}

	switch storageType {
	case StorageTypeFile:
		path := cfg.SessionFile
		if path == "" {
			path = filestorage.DefaultPath()
		}
		store = filestorage.New(path)
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		store = redisStore
		closers = append(closers, redisStore)
	default:
		return nil, fmt.Errorf("invalid StorageType %q: must be 'file', 'memory' or 'redis'", storageType)
	}

	app := newWithDependencies(store, clock.New(), cfg.ClientConfig, cfg.ViewConfig, logger)
	app.closers = closers
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, clientCfg client.Config, viewCfg gameview.Config, logger *slog.Logger) *App {
	if clientCfg.BaseURL == "" && clientCfg.Timeout == 0 {
		clientCfg = client.DefaultConfig()
	}
	if viewCfg.PollInterval == 0 {
		viewCfg = gameview.DefaultConfig()
	}

	// The store reads its token through the client and the client reads its
	// token from the store
	apiClient := client.New(clientCfg, nil, logger)
	sessionStore := session.New(store, apiClient, logger)
	apiClient.SetTokenSource(sessionStore)

	return &App{
		Storage:     store,
		Clock:       clk,
		Client:      apiClient,
		Logger:      logger,
		Session:     sessionStore,
		Leaderboard: leaderboard.New(apiClient, logger),
		History:     history.New(apiClient, sessionStore, logger),
		viewCfg:     viewCfg,
	}
}

// NewGameView creates a game view for one game page. Each view owns its
// snapshot; close it when the page goes away.
func (a *App) NewGameView() *gameview.View {
	return gameview.New(a.Client, a.Session, a.Clock, a.viewCfg, a.Logger)
}

// Close releases storage connections
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
