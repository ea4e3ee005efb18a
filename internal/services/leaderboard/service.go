package leaderboard

import (
	"context"
	"log/slog"

	"github.com/mcoot/tictactoe-go/internal/model"
)

// Fetcher loads the server-ranked leaderboard
type Fetcher interface {
	Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error)
}

// Service serves the leaderboard page and the sidebar summary. Entries are
// kept in server order.
type Service struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// New creates a new leaderboard Service
func New(fetcher Fetcher, logger *slog.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		logger:  logger.With(slog.String("component", "leaderboard")),
	}
}

// List returns the full leaderboard
func (s *Service) List(ctx context.Context) ([]model.LeaderboardEntry, error) {
	return s.fetcher.Leaderboard(ctx)
}

// Summary returns the top n entries for the sidebar, or all of them when
// n <= 0. It is a one-shot fetch: on any failure it returns an empty list.
func (s *Service) Summary(ctx context.Context, n int) []model.LeaderboardEntry {
	entries, err := s.fetcher.Leaderboard(ctx)
	if err != nil {
		s.logger.Debug("leaderboard summary unavailable", slog.String("error", err.Error()))
		return []model.LeaderboardEntry{}
	}
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
