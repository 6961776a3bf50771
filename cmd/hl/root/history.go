package root

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"habitline/internal/engine"
	"habitline/internal/ui"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show completions and reward per day",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			completions := a.store.State().Completions
			days := engine.RewardByDay(completions)
			if limit > 0 && len(days) > limit {
				days = days[:limit]
			}
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), days)
			}
			if len(days) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render("No completions yet."))
				return nil
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"Date", "Done", "Reward"})
			for _, d := range days {
				tw.AppendRow(table.Row{d.Date, d.Count, d.Reward})
			}
			tw.AppendFooter(table.Row{"Total", len(completions), engine.TotalReward(completions)})
			tw.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 14, "Number of days to show (0 = all)")

	return cmd
}
