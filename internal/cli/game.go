package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/tictactoe-go/internal/model"
)

func newGameCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Cobra only runs the closest PersistentPreRunE
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			_, err := rt.requireSession()
			return err
		},
	}

	cmd.AddCommand(newGameNewCmd(rt))
	cmd.AddCommand(newGameShowCmd(rt))
	cmd.AddCommand(newGameMoveCmd(rt))
	cmd.AddCommand(newGamePlayCmd(rt))

	return cmd
}

func newGameNewCmd(rt *runtime) *cobra.Command {
	var opponent, with string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a new game",
		RunE: func(cmd *cobra.Command, args []string) error {
			opponentType, err := model.ParseOpponentType(opponent)
			if err != nil {
				return err
			}

			view := rt.app.NewGameView()
			defer view.Close()

			id, err := view.NewGame(cmd.Context(), opponentType, with)
			if err != nil {
				return displayError(err)
			}

			rt.out.Print(NewGameResult{GameID: id, Opponent: opponentLabel(opponentType, with)})
			return nil
		},
	}

	cmd.Flags().StringVar(&opponent, "opponent", string(model.OpponentAI), "Opponent type: ai, human")
	cmd.Flags().StringVar(&with, "with", "", "Opponent username (required for human)")

	return cmd
}

func newGameShowCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show <game-id>",
		Short: "Show the current state of a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}

			snap, err := rt.app.Client.GameState(cmd.Context(), id)
			if err != nil {
				return err
			}

			rt.out.Print(GameResult{GameID: id, Snapshot: snap, Viewer: rt.app.Session.Username()})
			return nil
		},
	}
}

func newGameMoveCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "move <game-id> <row> <col>",
		Short: "Place your mark at row, col (0-2)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}
			row, col, err := parseCell(args[1], args[2])
			if err != nil {
				return err
			}

			view := rt.app.NewGameView()
			defer view.Close()

			view.Bind(id)
			if _, err := view.Refresh(cmd.Context()); err != nil {
				return err
			}

			snap, err := view.MakeMove(cmd.Context(), row, col)
			if err != nil {
				return displayError(err)
			}

			rt.out.Print(GameResult{GameID: id, Snapshot: snap, Viewer: rt.app.Session.Username()})
			return nil
		},
	}
}

func parseGameID(s string) (model.GameID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid game id %q", s)
	}
	return model.GameID(id), nil
}

func parseCell(rowArg, colArg string) (int, int, error) {
	row, err := strconv.Atoi(rowArg)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid row %q", rowArg)
	}
	col, err := strconv.Atoi(colArg)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid column %q", colArg)
	}
	return row, col, nil
}

func opponentLabel(opponent model.OpponentType, with string) string {
	if opponent == model.OpponentHuman {
		return with
	}
	return "the AI"
}
