package root

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"habitline/internal/domain"
	"habitline/internal/engine"
	"habitline/internal/ui"
)

func newEditCmd() *cobra.Command {
	var (
		title    string
		reward   int
		taskType string
		days     []int
		desc     string
		icon     string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task",
		Long: `Change a task. Only the flags you pass are applied. Completions already
recorded keep the reward they were earned with.`,
		Example: `  hl edit 3f2a --reward 4
  hl edit 3f2a --type weekly --days 0,6`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("id is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch domain.TaskPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("reward") {
				patch.Reward = &reward
			}
			if flags.Changed("type") {
				typ, err := domain.ParseTaskType(taskType)
				if err != nil {
					return err
				}
				patch.Type = &typ
			}
			if flags.Changed("days") {
				patch.Days = &days
			}
			if flags.Changed("desc") {
				patch.Description = &desc
			}
			if flags.Changed("icon") {
				patch.Icon = &icon
			}
			if patch.IsEmpty() {
				return errors.New("nothing to change: pass at least one flag")
			}

			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			t, err := a.resolve(args[0])
			if err != nil {
				return err
			}
			if err := patch.Apply(t).Validate(); err != nil {
				return err
			}

			state := a.store.Dispatch(engine.UpdateTask{ID: t.ID, Patch: patch})
			updated := state.Tasks[domain.FindTask(state.Tasks, t.ID)]
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), updated)
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(fmt.Sprintf("%s Updated %s %s", ui.IconDone, ui.TaskIcon(updated), updated.Title)), ui.Muted.Render(fmt.Sprintf("(+%d, %s)", updated.Reward, ui.Schedule(updated))))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().IntVarP(&reward, "reward", "r", 0, "New reward")
	cmd.Flags().StringVarP(&taskType, "type", "t", "", "New schedule (daily|weekly)")
	cmd.Flags().IntSliceVarP(&days, "days", "d", nil, "New weekdays, 0=Sun..6=Sat")
	cmd.Flags().StringVar(&desc, "desc", "", "New description")
	cmd.Flags().StringVar(&icon, "icon", "", "New icon")

	return cmd
}
