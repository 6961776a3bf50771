package root

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"habitline/internal/engine"
	"habitline/internal/ui"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			state := a.store.State()
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), state.Tasks)
			}
			if len(state.Tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("No tasks yet. Add one with: hl add <title>"))
				return nil
			}

			now := a.now()
			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"ID", "", "Title", "Reward", "Schedule", "Today"})
			for _, t := range state.Tasks {
				today := "-"
				if t.DueOn(now.Weekday()) {
					today = ui.StatusText(engine.IsCompletedToday(state.Completions, t.ID, now))
				}
				tw.AppendRow(table.Row{shortID(t.ID), ui.TaskIcon(t), t.Title, t.Reward, ui.Schedule(t), today})
			}
			tw.Render()
			return nil
		},
	}

	return cmd
}
