package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mcoot/tictactoe-go/internal/model"
)

// LoginRequest is the body of POST /login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /register
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by /login and /register. Username is only sent
// by /login, and not always.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username,omitempty"`
}

// NewGameRequest is the body of POST /new_game
type NewGameRequest struct {
	OpponentType     model.OpponentType `json:"opponent_type"`
	OpponentUsername string             `json:"opponent_username,omitempty"`
}

// MoveRequest is the body of POST /make_move
type MoveRequest struct {
	GameID model.GameID `json:"game_id"`
	Row    int          `json:"row"`
	Col    int          `json:"col"`
}

// HistoryResponse is returned by GET /game_history
type HistoryResponse struct {
	History []model.HistoryEntry `json:"history"`
}

// LeaderboardResponse is returned by GET /leaderboard
type LeaderboardResponse struct {
	Leaderboard []model.LeaderboardEntry `json:"leaderboard"`
}

// Login authenticates with email and password
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var result AuthResponse
	if err := c.Post(ctx, "/login", false, LoginRequest{Email: email, Password: password}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Register creates an account and authenticates
func (c *Client) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	req := RegisterRequest{Username: username, Email: email, Password: password}
	var result AuthResponse
	if err := c.Post(ctx, "/register", false, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// NewGame starts a game and returns its id. The opponent username is only
// sent for human opponents.
func (c *Client) NewGame(ctx context.Context, opponent model.OpponentType, opponentUsername string) (model.GameID, error) {
	req := NewGameRequest{OpponentType: opponent}
	if opponent == model.OpponentHuman {
		req.OpponentUsername = opponentUsername
	}

	var raw json.RawMessage
	if err := c.Post(ctx, "/new_game", true, req, &raw); err != nil {
		return 0, err
	}
	return parseGameID(raw)
}

// GameState fetches the current snapshot of a game
func (c *Client) GameState(ctx context.Context, id model.GameID) (*model.GameSnapshot, error) {
	var result model.GameSnapshot
	if err := c.Get(ctx, fmt.Sprintf("/game_state/%d", id), true, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MakeMove plays at (row, col) and returns the resulting snapshot
func (c *Client) MakeMove(ctx context.Context, id model.GameID, row, col int) (*model.GameSnapshot, error) {
	var result model.GameSnapshot
	if err := c.Post(ctx, "/make_move", true, MoveRequest{GameID: id, Row: row, Col: col}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GameHistory lists the caller's games
func (c *Client) GameHistory(ctx context.Context) ([]model.HistoryEntry, error) {
	var result HistoryResponse
	if err := c.Get(ctx, "/game_history", true, &result); err != nil {
		return nil, err
	}
	if result.History == nil {
		return []model.HistoryEntry{}, nil
	}
	return result.History, nil
}

// Leaderboard fetches the ranked leaderboard. No authentication is sent.
func (c *Client) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	var result LeaderboardResponse
	if err := c.Get(ctx, "/leaderboard", false, &result); err != nil {
		return nil, err
	}
	if result.Leaderboard == nil {
		return []model.LeaderboardEntry{}, nil
	}
	return result.Leaderboard, nil
}

// parseGameID accepts a bare integer, which is what the server sends, and
// falls back to {"game_id": n} or {"id": n}
func parseGameID(raw json.RawMessage) (model.GameID, error) {
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return 0, fmt.Errorf("failed to parse game id from %q", string(raw))
	}

	var id model.GameID
	if err := json.Unmarshal(raw, &id); err == nil {
		return id, nil
	}

	var wrapped struct {
		GameID *model.GameID `json:"game_id"`
		ID     *model.GameID `json:"id"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		if wrapped.GameID != nil {
			return *wrapped.GameID, nil
		}
		if wrapped.ID != nil {
			return *wrapped.ID, nil
		}
	}
	return 0, fmt.Errorf("failed to parse game id from %s", string(raw))
}
