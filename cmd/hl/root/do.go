package root

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"habitline/internal/engine"
	"habitline/internal/ui"
)

func newDoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "do <id>",
		Short: "Complete a task for today",
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
			out := cmd.OutOrStdout()
			if engine.IsCompletedToday(a.store.State().Completions, t.ID, a.now()) {
				fmt.Fprintln(out, ui.Muted.Render(fmt.Sprintf("%s is already done today.", t.Title)))
				return nil
			}

			state := a.store.Dispatch(engine.CompleteTask{TaskID: t.ID})
			fmt.Fprintln(out, ui.Good.Render(fmt.Sprintf("%s Completed %s %s", ui.IconDone, ui.TaskIcon(t), t.Title)), ui.Gold.Render(fmt.Sprintf("+%d", t.Reward)))
			if p := state.Achievements.Pending; p != nil {
				fmt.Fprintln(out, ui.Unlocked(p))
				a.store.Dispatch(engine.ClearPendingAchievement{})
			}
			return nil
		},
	}

	return cmd
}
