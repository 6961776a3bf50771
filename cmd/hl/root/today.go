package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"habitline/internal/engine"
	"habitline/internal/ui"
)

func newTodayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show tasks due today",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			state := a.store.State()
			now := a.now()
			tasks := engine.TodayTasks(state.Tasks, now)
			p := engine.TodayProgress(state, now)
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), map[string]any{"date": now.Format("2006-01-02"), "tasks": tasks, "progress": p})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, ui.Heading(ui.IconHabit, "Today · "+now.Format("Mon 2006-01-02")))
			if len(tasks) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("Nothing due today."))
				return nil
			}
			for _, t := range tasks {
				done := engine.IsCompletedToday(state.Completions, t.ID, now)
				fmt.Fprintf(out, "%s %s %s %s %s\n", ui.CheckIcon(done), ui.Muted.Render(shortID(t.ID)), ui.TaskIcon(t), t.Title, ui.Muted.Render(fmt.Sprintf("+%d", t.Reward)))
			}
			fmt.Fprintln(out, "")
			fmt.Fprintln(out, ui.LabelValue("Progress", fmt.Sprintf("%d/%d (%.0f%%)", p.Done, p.Total, p.Percent()*100)))
			fmt.Fprintln(out, ui.LabelValue("Earned", fmt.Sprintf("%d of %d", p.Earned, p.Reward)))
			return nil
		},
	}

	return cmd
}
