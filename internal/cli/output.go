package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mcoot/tictactoe-go/internal/model"
	"github.com/mcoot/tictactoe-go/internal/services/history"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
	errW   io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w, errW io.Writer) *Output {
	return &Output{format: format, w: w, errW: errW}
}

// JSON reports whether output is machine readable
func (o *Output) JSON() bool {
	return o.format == "json"
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.JSON() {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.JSON() {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(o.errW, string(data))
	} else {
		fmt.Fprintf(o.errW, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.JSON() {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

// Prompt writes an interactive prompt without a newline. JSON output has no
// prompts.
func (o *Output) Prompt(msg string) {
	if !o.JSON() {
		fmt.Fprint(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case IdentityResult:
		o.printIdentity(v)
	case GameResult:
		o.printGame(v)
	case NewGameResult:
		fmt.Fprintf(o.w, "Started game %d against %s\n", v.GameID, v.Opponent)
	case LeaderboardResult:
		o.printLeaderboard(v)
	case HistoryResult:
		o.printHistory(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// IdentityResult is printed by register, login and whoami
type IdentityResult struct {
	Username string `json:"username"`
}

// GameResult is one game and, in the interactive view, who is looking at it
type GameResult struct {
	GameID   model.GameID        `json:"game_id"`
	Snapshot *model.GameSnapshot `json:"state"`
	Viewer   string              `json:"-"`
	Error    string              `json:"error,omitempty"`
}

// NewGameResult is printed by game new
type NewGameResult struct {
	GameID   model.GameID `json:"game_id"`
	Opponent string       `json:"opponent"`
}

// LeaderboardResult wraps the ranked entries
type LeaderboardResult struct {
	Entries []model.LeaderboardEntry `json:"leaderboard"`
}

// HistoryResult wraps the caller's games
type HistoryResult struct {
	Username string               `json:"username"`
	Entries  []model.HistoryEntry `json:"history"`
}

func (o *Output) printIdentity(r IdentityResult) {
	fmt.Fprintf(o.w, "Logged in as %s\n", r.Username)
}

func (o *Output) printGame(g GameResult) {
	switch {
	case g.Snapshot == nil && g.GameID == 0:
		// Nothing bound, only an error to show
	case g.Snapshot == nil:
		fmt.Fprintf(o.w, "Game: %d\n", g.GameID)
		fmt.Fprintln(o.w, "Loading...")
	default:
		fmt.Fprintf(o.w, "Game: %d\n", g.GameID)
		o.printBoard(g.Snapshot.Board)
		fmt.Fprintf(o.w, "Status: %s\n", g.Snapshot.Status)
		o.printTurn(g.Snapshot, g.Viewer)
	}

	if g.Error != "" {
		fmt.Fprintf(o.w, "Error: %s\n", g.Error)
	}
}

func (o *Output) printTurn(s *model.GameSnapshot, viewer string) {
	switch {
	case s.Winner != nil:
		fmt.Fprintf(o.w, "Winner: %s\n", *s.Winner)
	case s.IsTerminal():
		fmt.Fprintln(o.w, "Draw")
	case s.NextTurn == nil:
		return
	case viewer != "" && *s.NextTurn == viewer:
		fmt.Fprintln(o.w, "Your turn")
	default:
		fmt.Fprintf(o.w, "Next turn: %s\n", *s.NextTurn)
	}
}

func (o *Output) printBoard(b model.Board) {
	border := "   +" + strings.Repeat("---", model.BoardSize) + "+"

	// Print column headers
	fmt.Fprint(o.w, "    ")
	for col := 0; col < model.BoardSize; col++ {
		fmt.Fprintf(o.w, " %d ", col)
	}
	fmt.Fprintln(o.w)

	fmt.Fprintln(o.w, border)
	for row := 0; row < model.BoardSize; row++ {
		fmt.Fprintf(o.w, " %d |", row)
		for col := 0; col < model.BoardSize; col++ {
			cell := b[row][col]
			if cell == model.MarkNone {
				fmt.Fprint(o.w, " . ")
			} else {
				fmt.Fprintf(o.w, " %s ", cell)
			}
		}
		fmt.Fprintln(o.w, "|")
	}
	fmt.Fprintln(o.w, border)
}

func (o *Output) printLeaderboard(l LeaderboardResult) {
	if len(l.Entries) == 0 {
		fmt.Fprintln(o.w, "No leaderboard data.")
		return
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tPLAYER\tWINS\tLOSSES\tDRAWS\tPLAYED")
	for i, e := range l.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\n", i+1, e.Username, e.Wins, e.Losses, e.Draws, e.GamesPlayed)
	}
	_ = tw.Flush()
}

func (o *Output) printHistory(h HistoryResult) {
	if len(h.Entries) == 0 {
		fmt.Fprintln(o.w, "No games played yet.")
		return
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GAME\tSTARTED\tPLAYERS\tWINNER\tMOVES\tRESULT")
	for _, e := range h.Entries {
		started := "-"
		if e.StartedAt != nil {
			started = e.StartedAt.Local().Format("2006-01-02 15:04")
		}
		winner := "-"
		if e.Winner != nil {
			winner = *e.Winner
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n",
			e.GameID, started, strings.Join(e.Players, " vs "), winner, e.MovesCount,
			history.OutcomeFor(e, h.Username))
	}
	_ = tw.Flush()
}
