package root

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"habitline/internal/engine"
	"habitline/internal/ui"
)

func newRmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Long:    "Delete a task. Its completions stay in the history.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("id is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			t, err := a.resolve(args[0])
			if err != nil {
				return err
			}
			a.store.Dispatch(engine.DeleteTask{ID: t.ID})
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(fmt.Sprintf("%s Deleted %s", ui.IconDone, t.Title)))
			return nil
		},
	}

	return cmd
}
