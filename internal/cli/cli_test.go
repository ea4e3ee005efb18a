package cli

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tictactoe-go/internal/apitest"
)

type CLISuite struct {
	suite.Suite
	server      *apitest.Server
	sessionFile string
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLISuite))
}

func (s *CLISuite) SetupTest() {
	s.server = apitest.New(s.T())
	s.sessionFile = filepath.Join(s.T().TempDir(), "session.yaml")
	s.T().Setenv("TTT_LOG_LEVEL", "error")
}

// execute runs one CLI invocation against the fake server
func (s *CLISuite) execute(stdin string, args ...string) (string, error) {
	cmd := NewRootCmd()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{
		"--server", s.server.URL,
		"--storage", "file",
		"--session-file", s.sessionFile,
	}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func (s *CLISuite) login() {
	s.server.On(apitest.RouteLogin, http.StatusOK, map[string]any{
		"access_token": "tok-alice",
		"token_type":   "bearer",
		"username":     "alice",
	})
	out, err := s.execute("", "login", "--email", "alice@example.com", "--password", "pw")
	s.Require().NoError(err, out)
	s.Contains(out, "Logged in as alice")
}

// Session commands

func (s *CLISuite) TestWhoamiAfterLogin() {
	s.login()

	out, err := s.execute("", "whoami")
	s.Require().NoError(err, out)
	s.Contains(out, "Logged in as alice")
}

func (s *CLISuite) TestWhoamiLoggedOut() {
	out, err := s.execute("", "whoami")
	s.Require().Error(err)
	s.Contains(out, "not logged in")
}

func (s *CLISuite) TestLoginFailureShowsServerDetail() {
	s.server.On(apitest.RouteLogin, http.StatusUnauthorized, map[string]any{"detail": "Incorrect email or password"})

	out, err := s.execute("", "login", "--email", "alice@example.com", "--password", "nope")
	s.Require().Error(err)
	s.Equal("Incorrect email or password", err.Error())
	s.Contains(out, "Incorrect email or password")
}

func (s *CLISuite) TestRegisterFailureFallsBack() {
	s.server.On(apitest.RouteRegister, http.StatusInternalServerError, "oops")

	_, err := s.execute("", "register", "--username", "bob", "--email", "bob@example.com", "--password", "pw")
	s.Require().Error(err)
	s.Equal("Registration failed.", err.Error())
}

func (s *CLISuite) TestLogout() {
	s.login()

	out, err := s.execute("", "logout")
	s.Require().NoError(err, out)
	s.Contains(out, "Logged out.")

	_, err = s.execute("", "whoami")
	s.Error(err)
}

// Leaderboard and history

func (s *CLISuite) TestLeaderboardText() {
	s.server.On(apitest.RouteLeaderboard, http.StatusOK, map[string]any{"leaderboard": []map[string]any{
		{"username": "alice", "wins": 3, "losses": 1, "draws": 2, "games_played": 6},
	}})

	out, err := s.execute("", "leaderboard")
	s.Require().NoError(err, out)
	s.Contains(out, "RANK")
	s.Contains(out, "alice")
}

func (s *CLISuite) TestLeaderboardEmpty() {
	s.server.On(apitest.RouteLeaderboard, http.StatusOK, map[string]any{"leaderboard": []any{}})

	out, err := s.execute("", "leaderboard")
	s.Require().NoError(err, out)
	s.Contains(out, "No leaderboard data.")
}

func (s *CLISuite) TestHistoryRequiresLogin() {
	_, err := s.execute("", "history")
	s.Require().Error(err)
	s.Contains(err.Error(), "not logged in")
	s.Zero(s.server.Calls(apitest.RouteGameHistory))
}

func (s *CLISuite) TestHistoryShowsOutcome() {
	s.login()
	s.server.On(apitest.RouteGameHistory, http.StatusOK, map[string]any{"history": []map[string]any{
		{
			"game_id":      5,
			"started_at":   "2024-01-01T10:00:00Z",
			"completed_at": "2024-01-01T10:05:00Z",
			"players":      []string{"alice", "bob"},
			"winner":       "bob",
			"moves_count":  7,
		},
	}})

	out, err := s.execute("", "history")
	s.Require().NoError(err, out)
	s.Contains(out, "alice vs bob")
	s.Contains(out, "lost")
}

// Game commands

func (s *CLISuite) TestGameRequiresLogin() {
	_, err := s.execute("", "game", "show", "1")
	s.Require().Error(err)
	s.Contains(err.Error(), "not logged in")
	s.Zero(s.server.Calls(apitest.RouteGameState))
}

func (s *CLISuite) TestGameNewHumanNeedsOpponent() {
	s.login()

	_, err := s.execute("", "game", "new", "--opponent", "human")
	s.Require().Error(err)
	s.Zero(s.server.Calls(apitest.RouteNewGame))
}

func (s *CLISuite) TestGameNewFailure() {
	s.login()
	s.server.On(apitest.RouteNewGame, http.StatusBadRequest, map[string]any{"detail": "no such user"})

	_, err := s.execute("", "game", "new", "--opponent", "human", "--with", "ghost")
	s.Require().Error(err)
	s.Equal("Could not start new game.", err.Error())
}

func (s *CLISuite) TestGameShowRendersBoard() {
	s.login()
	s.server.On(apitest.RouteGameState, http.StatusOK,
		apitest.Snapshot([3][3]string{{"X", "", ""}, {"", "O", ""}}, "alice", "", "in_progress"))

	out, err := s.execute("", "game", "show", "3")
	s.Require().NoError(err, out)
	s.Contains(out, "Game: 3")
	s.Contains(out, " 0 | X  .  . |")
	s.Contains(out, " 1 | .  O  . |")
	s.Contains(out, "Your turn")
}

func (s *CLISuite) TestGameMoveNotYourTurn() {
	s.login()
	s.server.On(apitest.RouteGameState, http.StatusOK, apitest.EmptySnapshot("bob"))

	_, err := s.execute("", "game", "move", "3", "0", "0")
	s.Require().Error(err)
	s.Contains(err.Error(), "not your turn")
	s.Zero(s.server.Calls(apitest.RouteMakeMove))
}

func (s *CLISuite) TestGameMoveRejected() {
	s.login()
	s.server.On(apitest.RouteGameState, http.StatusOK, apitest.EmptySnapshot("alice"))
	s.server.On(apitest.RouteMakeMove, http.StatusBadRequest, map[string]any{"detail": "Cell occupied"})

	_, err := s.execute("", "game", "move", "3", "0", "0")
	s.Require().Error(err)
	s.Equal("Invalid move.", err.Error())
}

// Interactive game page

func (s *CLISuite) TestPlayStartsAIGameAndMoves() {
	s.login()
	s.server.On(apitest.RouteNewGame, http.StatusOK, 12)
	s.server.On(apitest.RouteGameState, http.StatusOK, apitest.EmptySnapshot("alice"))
	s.server.On(apitest.RouteMakeMove, http.StatusOK,
		apitest.Snapshot([3][3]string{{}, {"", "X", ""}, {"O", "", ""}}, "alice", "", "in_progress"))

	out, err := s.execute("1 1\nquit\n", "game", "play")
	s.Require().NoError(err, out)

	s.Contains(out, "Started game 12 against the AI")
	s.Contains(out, " 1 | .  X  . |")
	s.Equal(1, s.server.Calls(apitest.RouteMakeMove))

	var body map[string]any
	req, _ := s.server.LastRequest(apitest.RouteNewGame)
	s.Require().NoError(req.DecodeBody(&body))
	s.Equal("ai", body["opponent_type"])
}

func (s *CLISuite) TestPlayShowsLeaderboardSummary() {
	s.login()
	s.server.On(apitest.RouteLeaderboard, http.StatusOK, map[string]any{"leaderboard": []map[string]any{
		{"username": "carol", "wins": 9, "losses": 0, "draws": 0, "games_played": 9},
	}})
	s.server.On(apitest.RouteNewGame, http.StatusOK, 12)
	s.server.On(apitest.RouteGameState, http.StatusOK, apitest.EmptySnapshot("alice"))

	out, err := s.execute("quit\n", "game", "play")
	s.Require().NoError(err, out)
	s.Contains(out, "carol")
}

func (s *CLISuite) TestPlayExistingGame() {
	s.login()
	s.server.On(apitest.RouteGameState, http.StatusOK, apitest.EmptySnapshot("bob"))

	out, err := s.execute("", "game", "play", "7")
	s.Require().NoError(err, out)

	s.Contains(out, "Game: 7")
	s.Contains(out, "Next turn: bob")
	s.Zero(s.server.Calls(apitest.RouteNewGame))

	req, _ := s.server.LastRequest(apitest.RouteGameState)
	s.Equal("/game_state/7", req.Path)
}

func (s *CLISuite) TestPlayRejectedMoveShowsError() {
	s.login()
	s.server.On(apitest.RouteGameState, http.StatusOK, apitest.EmptySnapshot("alice"))
	s.server.On(apitest.RouteMakeMove, http.StatusBadRequest, map[string]any{"detail": "Cell occupied"})

	out, err := s.execute("0 0\nquit\n", "game", "play", "7")
	s.Require().NoError(err, out)
	s.Contains(out, "Error: Invalid move.")
}

func (s *CLISuite) TestPlayNewHumanPromptsForOpponent() {
	s.login()
	s.server.On(apitest.RouteNewGame, http.StatusOK, 13)
	s.server.On(apitest.RouteGameState, http.StatusOK, apitest.EmptySnapshot("alice"))

	out, err := s.execute("new human\nbob\nquit\n", "game", "play", "7")
	s.Require().NoError(err, out)

	s.Contains(out, "Opponent username: ")
	s.Contains(out, "Started game 13 against bob")

	var body map[string]any
	req, _ := s.server.LastRequest(apitest.RouteNewGame)
	s.Require().NoError(req.DecodeBody(&body))
	s.Equal("human", body["opponent_type"])
	s.Equal("bob", body["opponent_username"])
}

func (s *CLISuite) TestPlayLogoutClosesPage() {
	s.login()
	s.server.On(apitest.RouteGameState, http.StatusOK, apitest.EmptySnapshot("alice"))

	out, err := s.execute("logout\n0 0\n", "game", "play", "7")
	s.Require().NoError(err, out)
	s.Contains(out, "Logged out.")
	s.Zero(s.server.Calls(apitest.RouteMakeMove))

	_, err = s.execute("", "whoami")
	s.Error(err)
}

// Config

func (s *CLISuite) TestInvalidStorage() {
	_, err := s.execute("", "--storage", "cookie", "whoami")
	s.Require().Error(err)
	s.Contains(err.Error(), "invalid storage")
}

func (s *CLISuite) TestConfigFromEnvironment() {
	s.T().Setenv("TTT_SERVER", "http://example.test:9000")
	s.T().Setenv("TTT_POLL_INTERVAL", "5s")

	cfg, err := LoadConfig()
	s.Require().NoError(err)
	s.Equal("http://example.test:9000", cfg.ServerURL)
	s.Equal("5s", cfg.PollInterval.String())
	s.Equal("file", cfg.Storage)
	s.Equal("text", cfg.Output)

	fc := cfg.FactoryConfig(nil)
	s.Equal("http://example.test:9000", fc.ClientConfig.BaseURL)
	s.Nil(fc.RedisConfig)
}

func (s *CLISuite) TestRedisFactoryConfig() {
	cfg, err := LoadConfig()
	s.Require().NoError(err)
	cfg.Storage = "redis"
	cfg.RedisURL = "redis://cache:6379/2"

	fc := cfg.FactoryConfig(nil)
	s.Require().NotNil(fc.RedisConfig)
	s.Equal("redis://cache:6379/2", fc.RedisConfig.URL)
	s.Equal("ttt", fc.RedisConfig.Namespace)
}
