package root

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"habitline/internal/domain"
	"habitline/internal/ui"
)

type achievementRow struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Unlocked    bool   `json:"unlocked"`
	UnlockedAt  string `json:"unlockedAt,omitempty"`
}

func newAchievementsCmd() *cobra.Command {
	var unlockedOnly bool

	cmd := &cobra.Command{
		Use:     "achievements",
		Aliases: []string{"ach"},
		Short:   "Show the achievement catalog and what you have unlocked",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			state := a.store.State()
			catalog := a.store.Catalog()
			byID := map[int]domain.AchievementRecord{}
			for _, r := range state.Achievements.Unlocked {
				byID[r.AchievementID] = r
			}

			rows := make([]achievementRow, 0, len(catalog))
			for _, d := range catalog {
				r, ok := byID[d.ID]
				if unlockedOnly && !ok {
					continue
				}
				rows = append(rows, achievementRow{
					ID:          d.ID,
					Title:       d.Title,
					Description: d.Description,
					Icon:        d.Icon,
					Unlocked:    ok,
					UnlockedAt:  r.CompletedTime,
				})
			}
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), rows)
			}

			p := catalog.CountUnlocked(state.Achievements.Unlocked)
			fmt.Fprintln(cmd.OutOrStdout(), ui.Heading(ui.IconTrophy, fmt.Sprintf("Achievements %d/%d", p.Unlocked, p.Total)))

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"#", "", "Title", "Description", "Unlocked"})
			for _, r := range rows {
				icon, when := ui.IconLock, "-"
				if r.Unlocked {
					icon, when = r.Icon, domain.DateKey(r.UnlockedAt)
				}
				tw.AppendRow(table.Row{r.ID, icon, r.Title, r.Description, when})
			}
			tw.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&unlockedOnly, "unlocked", false, "Only show unlocked achievements")

	return cmd
}
