package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"habitline/internal/engine"
	"habitline/internal/ui"
)

type statusView struct {
	Level           engine.Level    `json:"level"`
	Tasks           int             `json:"tasks"`
	Completions     int             `json:"completions"`
	Today           engine.Progress `json:"today"`
	Unlocked        int             `json:"unlocked"`
	Available       int             `json:"available"`
	Backend         string          `json:"backend"`
	LastSyncTime    string          `json:"lastSyncTime,omitempty"`
	LastRestoreTime string          `json:"lastRestoreTime,omitempty"`
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show level, totals and today's progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			state := a.store.State()
			ach := a.store.Catalog().CountUnlocked(state.Achievements.Unlocked)
			v := statusView{
				Level:           engine.LevelFor(engine.TotalReward(state.Completions)),
				Tasks:           len(state.Tasks),
				Completions:     len(state.Completions),
				Today:           engine.TodayProgress(state, a.now()),
				Unlocked:        ach.Unlocked,
				Available:       ach.Total,
				Backend:         string(a.cfg.Kind()),
				LastSyncTime:    a.cfg.Sync.LastSyncTime,
				LastRestoreTime: a.cfg.Sync.LastRestoreTime,
			}
			if jsonOutput() {
				return printJSON(cmd.OutOrStdout(), v)
			}

			out := cmd.OutOrStdout()
			toNext := v.Level.Next - v.Level.Total
			fmt.Fprintln(out, ui.Heading(ui.IconSparkle, "Status"))
			fmt.Fprintln(out, ui.LabelValue("Level", v.Level.Level))
			fmt.Fprintln(out, ui.LabelValue("Total reward", fmt.Sprintf("%s %d (next level at %d, %d to go)", ui.IconCoin, v.Level.Total, v.Level.Next, toNext)))
			fmt.Fprintln(out, ui.LabelValue("Tasks", v.Tasks))
			fmt.Fprintln(out, ui.LabelValue("Completions", v.Completions))
			fmt.Fprintln(out, ui.LabelValue("Today", fmt.Sprintf("%d/%d done, %d earned", v.Today.Done, v.Today.Total, v.Today.Earned)))
			fmt.Fprintln(out, ui.LabelValue("Achievements", fmt.Sprintf("%s %d/%d", ui.IconTrophy, v.Unlocked, v.Available)))
			fmt.Fprintln(out, "")

			fmt.Fprintln(out, ui.H2.Render(ui.IconSync+" Storage"))
			fmt.Fprintln(out, ui.LabelValue("Backend", v.Backend))
			fmt.Fprintln(out, ui.LabelValue("Last sync", orNever(v.LastSyncTime)))
			fmt.Fprintln(out, ui.LabelValue("Last restore", orNever(v.LastRestoreTime)))
			return nil
		},
	}

	return cmd
}

func orNever(ts string) string {
	if ts == "" {
		return ui.Muted.Render("never")
	}
	return ts
}
