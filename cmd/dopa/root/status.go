package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/realQhimself/dopamine-app/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var history int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show level, XP, and streaks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, _, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			w := cmd.OutOrStdout()
			lvl := svc.Progress.CurrentLevel()

			fmt.Fprintln(w, ui.Heading(lvl.Icon, fmt.Sprintf("%s — level %d", lvl.Title, lvl.Level)))
			if next, ok := svc.Progress.NextLevel(); ok {
				toGo := next.XPRequired - svc.Progress.TotalXP()
				bar := ui.ProgressBar(int(svc.Progress.LevelProgress()*100), 100, 24)
				fmt.Fprintln(w, ui.LabelValue("XP", fmt.Sprintf("%d %s next: %s at %d (%d to go)", svc.Progress.TotalXP(), bar, next.Title, next.XPRequired, toGo)))
			} else {
				fmt.Fprintln(w, ui.LabelValue("XP", fmt.Sprintf("%d (max level)", svc.Progress.TotalXP())))
			}
			fmt.Fprintln(w, ui.LabelValue("Today", fmt.Sprintf("%d XP", svc.Progress.TodayXP())))
			fmt.Fprintln(w, ui.LabelValue("Streak", fmt.Sprintf("%s %d days (best %d)", ui.IconStreak, svc.Progress.CurrentStreak(), svc.Progress.BestStreak())))

			prog := svc.Tasks.TodayProgress()
			fmt.Fprintln(w, ui.LabelValue("Tasks", fmt.Sprintf("%d/%d done (%d%%)", prog.Done, prog.Total, prog.Percent)))
			fmt.Fprintln(w, ui.LabelValue("Energy", ui.EnergyText(svc.Tasks.Energy())))
			if svc.Tasks.MVDMode() {
				fmt.Fprintln(w, ui.Warn.Render(fmt.Sprintf("%s MVD mode active (~%d min)", ui.IconShield, svc.Tasks.MVDTimeEstimate())))
			}

			if history > 0 {
				recs := svc.Progress.History()
				if len(recs) > history {
					recs = recs[len(recs)-history:]
				}
				fmt.Fprintln(w, "")
				fmt.Fprintln(w, ui.H2.Render("Recent days"))
				for _, r := range recs {
					fmt.Fprintf(w, "- %s  %d tasks, %d XP\n", r.Date, r.TasksCompleted, r.XPEarned)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&history, "history", 0, "Show the last N day records")

	return cmd
}
