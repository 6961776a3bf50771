package root

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"habitline/internal/domain"
	"habitline/internal/engine"
	"habitline/internal/ui"
)

func newAddCmd() *cobra.Command {
	var reward int
	var taskType string
	var days []int
	var desc string
	var icon string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a daily or weekly task",
		Example: `  hl add "Morning run" --reward 3
  hl add "Gym" --reward 5 --type weekly --days 1,3,5`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
				return errors.New("title is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := domain.ParseTaskType(taskType)
			if err != nil {
				return err
			}
			t := domain.Task{
				Title:       strings.TrimSpace(args[0]),
				Description: desc,
				Icon:        icon,
				Reward:      reward,
				Type:        typ,
				Days:        days,
			}
			if typ == domain.TaskTypeDaily {
				t.Days = nil
			}
			if err := t.Validate(); err != nil {
				return err
			}

			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			state := a.store.Dispatch(engine.AddTasks{Tasks: []domain.Task{t}})
			created := state.Tasks[len(state.Tasks)-1]
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), created)
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(fmt.Sprintf("%s Added %s %s", ui.IconPlus, ui.TaskIcon(created), created.Title)))
			fmt.Fprintln(cmd.OutOrStdout(), ui.LabelValue("ID", shortID(created.ID)), ui.Muted.Render(fmt.Sprintf("(+%d, %s)", created.Reward, ui.Schedule(created))))
			return nil
		},
	}

	cmd.Flags().IntVarP(&reward, "reward", "r", 1, "Reward points per completion")
	cmd.Flags().StringVarP(&taskType, "type", "t", "daily", "Schedule (daily|weekly)")
	cmd.Flags().IntSliceVarP(&days, "days", "d", nil, "Weekdays for weekly tasks, 0=Sun..6=Sat")
	cmd.Flags().StringVar(&desc, "desc", "", "Description")
	cmd.Flags().StringVar(&icon, "icon", "", "Icon (emoji)")

	return cmd
}
