package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/tictactoe-go/internal/model"
	"github.com/mcoot/tictactoe-go/internal/services/gameview"
)

// summarySize is how many leaderboard rows the game page shows
const summarySize = 5

const playHelp = `Commands:
  <row> <col>        place your mark (0-2)
  new ai             start a game against the AI
  new human [user]   start a game against another player
  refresh            fetch the board now
  logout             log out and leave
  quit               leave the game page`

func newGamePlayCmd(rt *runtime) *cobra.Command {
	var opponent, with string

	cmd := &cobra.Command{
		Use:   "play [game-id]",
		Short: "Open the interactive game page",
		Long: `Open the interactive game page. With a game id the page follows that
game; otherwise a new game is started. The board is refreshed every poll
interval until you quit.

` + playHelp,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := &playPage{
				rt:    rt,
				view:  rt.app.NewGameView(),
				lines: readLines(cmd.InOrStdin()),
			}
			defer p.view.Close()

			if len(args) == 1 {
				id, err := parseGameID(args[0])
				if err != nil {
					return err
				}
				p.bind(cmd.Context(), id)
			} else {
				opponentType, err := model.ParseOpponentType(opponent)
				if err != nil {
					return err
				}
				p.printSummary(cmd.Context())
				p.startGame(cmd.Context(), opponentType, with)
			}

			return p.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&opponent, "opponent", string(model.OpponentAI), "Opponent for a new game: ai, human")
	cmd.Flags().StringVar(&with, "with", "", "Opponent username (required for human)")

	return cmd
}

// playPage is the interactive game page: it renders the view whenever it
// changes and runs commands read from stdin
type playPage struct {
	rt    *runtime
	view  *gameview.View
	lines <-chan string

	rendered *GameResult
}

func (p *playPage) run(ctx context.Context) error {
	changed := make(chan struct{}, 1)
	unsubscribeView := p.view.Subscribe(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer unsubscribeView()

	loggedOut := make(chan struct{}, 1)
	unsubscribeSession := p.rt.app.Session.Subscribe(func(identity *model.Identity) {
		if identity == nil {
			select {
			case loggedOut <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribeSession()

	p.render()
	p.rt.out.Prompt("> ")

	for {
		// A logout ends the page before any further input is read
		select {
		case <-loggedOut:
			p.rt.out.PrintMessage("Logged out.")
			return nil
		default:
		}

		select {
		case <-ctx.Done():
			return nil
		case <-loggedOut:
			p.rt.out.PrintMessage("Logged out.")
			return nil
		case <-changed:
			if p.render() {
				p.rt.out.Prompt("> ")
			}
		case line, ok := <-p.lines:
			if !ok {
				return nil
			}
			if quit := p.handle(ctx, line); quit {
				return nil
			}
			p.render()
			p.rt.out.Prompt("> ")
		}
	}
}

// handle runs one command and reports whether the page should close
func (p *playPage) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		p.rt.out.PrintMessage(playHelp)
	case "logout":
		// The session subscriber closes the page
		p.rt.app.Session.Logout(ctx)
	case "refresh":
		if _, err := p.view.Refresh(ctx); err != nil {
			p.rt.out.PrintError(err)
		}
	case "new":
		p.handleNew(ctx, fields[1:])
	default:
		if len(fields) != 2 {
			p.rt.out.PrintError(fmt.Errorf("unknown command %q, type help for commands", line))
			return false
		}
		row, col, err := parseCell(fields[0], fields[1])
		if err != nil {
			p.rt.out.PrintError(err)
			return false
		}
		if _, err := p.view.MakeMove(ctx, row, col); err != nil {
			var moveErr *model.MoveError
			// A rejected move shows up as the view's display error
			if !errors.As(err, &moveErr) {
				p.rt.out.PrintError(err)
			}
		}
	}
	return false
}

func (p *playPage) handleNew(ctx context.Context, args []string) {
	kind := string(model.OpponentAI)
	if len(args) > 0 {
		kind = args[0]
	}
	opponentType, err := model.ParseOpponentType(kind)
	if err != nil {
		p.rt.out.PrintError(err)
		return
	}

	var with string
	if len(args) > 1 {
		with = args[1]
	}
	if opponentType == model.OpponentHuman && with == "" {
		p.rt.out.Prompt("Opponent username: ")
		line, ok := <-p.lines
		if !ok {
			return
		}
		with = strings.TrimSpace(line)
	}

	p.startGame(ctx, opponentType, with)
}

func (p *playPage) startGame(ctx context.Context, opponent model.OpponentType, with string) {
	id, err := p.view.NewGame(ctx, opponent, with)
	if err != nil {
		var startErr *model.GameStartError
		// A refused start shows up as the view's display error
		if !errors.As(err, &startErr) {
			p.rt.out.PrintError(err)
		}
		return
	}
	p.rt.out.PrintMessage(fmt.Sprintf("Started game %d against %s", id, opponentLabel(opponent, with)))
	p.load(ctx)
}

func (p *playPage) bind(ctx context.Context, id model.GameID) {
	p.view.Bind(id)
	p.load(ctx)
}

// load waits for the first snapshot so commands typed straight away see
// the board
func (p *playPage) load(ctx context.Context) {
	if _, err := p.view.Refresh(ctx); err != nil {
		p.rt.app.Logger.Debug("initial game load failed", slog.String("error", err.Error()))
	}
}

func (p *playPage) printSummary(ctx context.Context) {
	entries := p.rt.app.Leaderboard.Summary(ctx, summarySize)
	if len(entries) == 0 {
		return
	}
	p.rt.out.Print(LeaderboardResult{Entries: entries})
}

// render prints the view if it differs from what was last printed and
// reports whether it printed
func (p *playPage) render() bool {
	current := p.current()
	if current == nil {
		if p.rendered == nil {
			return false
		}
		p.rendered = nil
		p.rt.out.PrintMessage("No game. Type 'new ai' or 'new human <user>' to start one.")
		return true
	}
	if p.rendered != nil && sameGame(*p.rendered, *current) {
		return false
	}
	p.rendered = current
	p.rt.out.Print(*current)
	return true
}

func (p *playPage) current() *GameResult {
	id, bound := p.view.GameID()
	msg := p.view.Error()
	if !bound && msg == "" {
		return nil
	}
	return &GameResult{
		GameID:   id,
		Snapshot: p.view.Snapshot(),
		Viewer:   p.rt.app.Session.Username(),
		Error:    msg,
	}
}

func sameGame(a, b GameResult) bool {
	if a.GameID != b.GameID || a.Error != b.Error {
		return false
	}
	if a.Snapshot == nil || b.Snapshot == nil {
		return a.Snapshot == nil && b.Snapshot == nil
	}
	return a.Snapshot.Equal(b.Snapshot)
}

// readLines delivers stdin one line at a time until EOF
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}
