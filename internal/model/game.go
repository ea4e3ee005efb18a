package model

import (
	"fmt"
	"strings"
)

// GameID identifies a game on the remote server
type GameID int64

// OpponentType selects who the caller plays against
type OpponentType string

const (
	OpponentAI    OpponentType = "ai"
	OpponentHuman OpponentType = "human"
)

// ParseOpponentType validates a user-supplied opponent type
func ParseOpponentType(s string) (OpponentType, error) {
	switch OpponentType(strings.ToLower(strings.TrimSpace(s))) {
	case OpponentAI:
		return OpponentAI, nil
	case OpponentHuman:
		return OpponentHuman, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOpponentType, s)
	}
}

// GameSnapshot is the authoritative state of one game as returned by the
// server. Snapshots are replaced wholesale, never patched.
type GameSnapshot struct {
	Board    Board   `json:"board"`
	NextTurn *string `json:"next_turn"`
	Winner   *string `json:"winner"`
	Status   string  `json:"status"`
}

// IsTerminal returns true once the game has a winner or ended in a draw
func (g *GameSnapshot) IsTerminal() bool {
	if g.Winner != nil {
		return true
	}
	return strings.Contains(strings.ToLower(g.Status), "draw")
}

// IsTurnOf returns true if the snapshot says it is username's turn
func (g *GameSnapshot) IsTurnOf(username string) bool {
	return g.NextTurn != nil && username != "" && *g.NextTurn == username
}

// Equal compares every field of two snapshots
func (g *GameSnapshot) Equal(other *GameSnapshot) bool {
	if g == nil || other == nil {
		return g == other
	}
	return g.Board == other.Board &&
		g.Status == other.Status &&
		equalOptional(g.NextTurn, other.NextTurn) &&
		equalOptional(g.Winner, other.Winner)
}

// Clone returns an independent copy of the snapshot
func (g *GameSnapshot) Clone() *GameSnapshot {
	if g == nil {
		return nil
	}
	out := *g
	out.NextTurn = cloneOptional(g.NextTurn)
	out.Winner = cloneOptional(g.Winner)
	return &out
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
