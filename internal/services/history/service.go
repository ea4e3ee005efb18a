package history

import (
	"context"
	"log/slog"

	"github.com/mcoot/tictactoe-go/internal/model"
)

// Fetcher loads the caller's game history
type Fetcher interface {
	GameHistory(ctx context.Context) ([]model.HistoryEntry, error)
}

// IdentitySource reports whether someone is logged in
type IdentitySource interface {
	Identity() *model.Identity
}

// Outcome is a history entry seen from one player's side
type Outcome string

const (
	OutcomeWon        Outcome = "won"
	OutcomeLost       Outcome = "lost"
	OutcomeDraw       Outcome = "draw"
	OutcomeUnfinished Outcome = "unfinished"
)

// Service lists the logged-in user's games
type Service struct {
	fetcher  Fetcher
	identity IdentitySource
	logger   *slog.Logger
}

// New creates a new history Service
func New(fetcher Fetcher, identity IdentitySource, logger *slog.Logger) *Service {
	return &Service{
		fetcher:  fetcher,
		identity: identity,
		logger:   logger.With(slog.String("component", "history")),
	}
}

// List returns the caller's games in server order. It needs a session and
// fails with ErrNotAuthenticated without calling the server otherwise.
func (s *Service) List(ctx context.Context) ([]model.HistoryEntry, error) {
	if s.identity.Identity() == nil {
		return nil, model.ErrNotAuthenticated
	}

	entries, err := s.fetcher.GameHistory(ctx)
	if err != nil {
		s.logger.Debug("history fetch failed", slog.String("error", err.Error()))
		return nil, err
	}
	return entries, nil
}

// OutcomeFor classifies entry from username's point of view
func OutcomeFor(entry model.HistoryEntry, username string) Outcome {
	switch {
	case entry.Winner != nil && *entry.Winner == username:
		return OutcomeWon
	case entry.Winner != nil:
		return OutcomeLost
	case entry.CompletedAt != nil:
		return OutcomeDraw
	default:
		return OutcomeUnfinished
	}
}
