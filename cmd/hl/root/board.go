package root

import (
	"github.com/spf13/cobra"

	"habitline/internal/tui"
)

func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the TUI board for today's tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			return tui.RunBoard(cmd.Context(), a.store, cmd.OutOrStdout())
		},
	}

	return cmd
}
