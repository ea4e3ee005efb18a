package cli

import (
	"github.com/spf13/cobra"
)

func newLeaderboardCmd(rt *runtime) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := rt.app.Leaderboard.List(cmd.Context())
			if err != nil {
				return err
			}
			if top > 0 && len(entries) > top {
				entries = entries[:top]
			}

			rt.out.Print(LeaderboardResult{Entries: entries})
			return nil
		},
	}

	cmd.Flags().IntVar(&top, "top", 0, "Only show the first n players")

	return cmd
}
