package model

import "errors"

// Common errors used across the application
var (
	// Session errors
	ErrNotAuthenticated    = errors.New("not logged in")
	ErrAlreadyInitialized  = errors.New("session store already initialized")
	ErrMissingAccessToken  = errors.New("server response has no access token")
	ErrInvalidOpponentType = errors.New("opponent type must be 'ai' or 'human'")

	// Game errors
	ErrOpponentRequired = errors.New("opponent username is required for a human opponent")
	ErrNoGameBound      = errors.New("no game is bound to this view")
	ErrGameStarting     = errors.New("a new game is already being started")
	ErrInvalidPosition  = errors.New("invalid board position")
	ErrMoveNotAllowed   = errors.New("move not allowed")
	ErrMalformedBoard   = errors.New("malformed board")
)

// Display messages used when the server gives nothing better
const (
	MsgLoginFailed        = "Login failed."
	MsgRegistrationFailed = "Registration failed."
	MsgGameStartFailed    = "Could not start new game."
	MsgInvalidMove        = "Invalid move."
)

// AuthError is returned when login or registration is rejected. Message is
// suitable for display next to the form.
type AuthError struct {
	Op      string // "login" or "register"
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Message
	}
	return e.Op + ": " + e.Message + ": " + e.Err.Error()
}

func (e *AuthError) Unwrap() error { return e.Err }

// GameStartError is returned when the server refuses to start a game
type GameStartError struct {
	Err error
}

func (e *GameStartError) Error() string {
	if e.Err == nil {
		return MsgGameStartFailed
	}
	return MsgGameStartFailed + " " + e.Err.Error()
}

func (e *GameStartError) Unwrap() error { return e.Err }

// Message returns the display string
func (e *GameStartError) Message() string { return MsgGameStartFailed }

// MoveError is returned when the server rejects a move
type MoveError struct {
	Position Position
	Err      error
}

func (e *MoveError) Error() string {
	if e.Err == nil {
		return MsgInvalidMove
	}
	return MsgInvalidMove + " " + e.Err.Error()
}

func (e *MoveError) Unwrap() error { return e.Err }

// Message returns the display string
func (e *MoveError) Message() string { return MsgInvalidMove }
