package cli

import (
	"github.com/spf13/cobra"
)

func newHistoryCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show your game history",
		RunE: func(cmd *cobra.Command, args []string) error {
			identity, err := rt.requireSession()
			if err != nil {
				return err
			}

			entries, err := rt.app.History.List(cmd.Context())
			if err != nil {
				return err
			}

			rt.out.Print(HistoryResult{Username: identity.Username, Entries: entries})
			return nil
		},
	}
}
