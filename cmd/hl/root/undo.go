package root

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"habitline/internal/engine"
	"habitline/internal/ui"
)

func newUndoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undo <id>",
		Short: "Remove every completion of a task",
		Long: `Remove every completion of a task, not only today's. Achievements that
were unlocked by one of the removed completions are revoked.`,
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
			before := a.store.State()
			after := a.store.Dispatch(engine.UncompleteTask{TaskID: t.ID})

			removed := len(before.Completions) - len(after.Completions)
			revoked := len(before.Achievements.Unlocked) - len(after.Achievements.Unlocked)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Warn.Render(fmt.Sprintf("%s Removed %d completion(s) of %s", ui.IconWarn, removed, t.Title)))
			if revoked > 0 {
				fmt.Fprintln(out, ui.Muted.Render(fmt.Sprintf("%d achievement(s) revoked", revoked)))
			}
			return nil
		},
	}

	return cmd
}
