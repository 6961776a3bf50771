package root

import (
	"errors"

	"github.com/spf13/cobra"
)

func newClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all tasks, completions and achievements",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear without --yes")
			}
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			return printResult(cmd.OutOrStdout(), a.transfer.Clear(cmd.Context()))
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deleting all data")

	return cmd
}
