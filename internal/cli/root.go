package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mcoot/tictactoe-go/internal/factory"
	"github.com/mcoot/tictactoe-go/internal/model"
)

// runtime is shared by the commands of one invocation. The app is built in
// PersistentPreRunE once flags are parsed.
type runtime struct {
	cfg *Config
	app *factory.App
	out *Output
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rt := &runtime{}

	cfg, cfgErr := LoadConfig()
	if cfgErr != nil {
		// Flags still work; the bad variable is reported when a command runs
		cfg = &Config{}
	}
	rt.cfg = cfg

	rootCmd := &cobra.Command{
		Use:   "ttt",
		Short: "CLI client for the tic-tac-toe API",
		Long: `ttt is a command-line client for a remote tic-tac-toe server.

It keeps you logged in between runs, starts games against the AI or other
players, and shows the leaderboard and your game history. "ttt game play"
is an interactive game page that refreshes the board every poll interval.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgErr != nil {
				return cfgErr
			}
			if err := rt.cfg.Validate(); err != nil {
				return err
			}

			rt.out = NewOutput(rt.cfg.Output, cmd.OutOrStdout(), cmd.ErrOrStderr())

			logger := rt.cfg.NewLogger(cmd.ErrOrStderr())
			app, err := factory.New(rt.cfg.FactoryConfig(logger))
			if err != nil {
				return err
			}
			rt.app = app

			if _, err := app.Session.Initialize(cmd.Context()); err != nil {
				return fmt.Errorf("failed to load session: %w", err)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if rt.app == nil {
				return nil
			}
			return rt.app.Close()
		},
		SilenceUsage: true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: TTT_SERVER)")
	flags.StringVar(&cfg.Storage, "storage", cfg.Storage, "Session storage: file, redis, memory (env: TTT_STORAGE)")
	flags.StringVar(&cfg.SessionFile, "session-file", cfg.SessionFile, "Session file path (env: TTT_SESSION_FILE)")
	flags.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis URL for redis storage (env: TTT_REDIS_URL)")
	flags.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Game refresh interval (env: TTT_POLL_INTERVAL)")
	flags.StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json (env: TTT_OUTPUT)")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newRegisterCmd(rt))
	rootCmd.AddCommand(newLoginCmd(rt))
	rootCmd.AddCommand(newLogoutCmd(rt))
	rootCmd.AddCommand(newWhoamiCmd(rt))
	rootCmd.AddCommand(newLeaderboardCmd(rt))
	rootCmd.AddCommand(newHistoryCmd(rt))
	rootCmd.AddCommand(newGameCmd(rt))

	return rootCmd
}

// requireSession is the route guard for commands that need a logged-in user
func (rt *runtime) requireSession() (model.Identity, error) {
	identity := rt.app.Session.Identity()
	if identity == nil {
		return model.Identity{}, model.ErrNotAuthenticated
	}
	return *identity, nil
}

// displayError swaps typed errors for their display message
func displayError(err error) error {
	var (
		authErr  *model.AuthError
		startErr *model.GameStartError
		moveErr  *model.MoveError
	)
	switch {
	case errors.As(err, &authErr):
		return errors.New(authErr.Message)
	case errors.As(err, &startErr):
		return errors.New(startErr.Message())
	case errors.As(err, &moveErr):
		return errors.New(moveErr.Message())
	default:
		return err
	}
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
