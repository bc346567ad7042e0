package root

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/realQhimself/dopamine-app/internal/engine"
	"github.com/realQhimself/dopamine-app/internal/ui"
)

func newListCmd() *cobra.Command {
	var all bool
	var quick bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List today's tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cfg, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			var tasks []engine.Task
			switch {
			case quick:
				tasks = svc.Tasks.QuickWins()
			case all:
				tasks = svc.Tasks.All()
			default:
				tasks = svc.Tasks.Visible()
			}
			if !quick && !svc.Tasks.MVDMode() {
				tasks = append(calendarOverlay(ctx, svc, cfg), tasks...)
			}

			w := cmd.OutOrStdout()
			title := "Today"
			if svc.Tasks.MVDMode() {
				title = fmt.Sprintf("Minimum Viable Day (~%d min)", svc.Tasks.MVDTimeEstimate())
			}
			if quick {
				title = "Quick wins"
			}
			fmt.Fprintln(w, ui.Heading(ui.IconSpark, title))

			if len(tasks) == 0 {
				fmt.Fprintln(w, ui.Muted.Render("(no tasks)"))
				return nil
			}
			for _, t := range tasks {
				printTaskLine(w, t)
			}

			prog := svc.Tasks.TodayProgress()
			fmt.Fprintln(w, "")
			fmt.Fprintf(w, "%s %d/%d done (%d%%)\n", ui.ProgressBar(prog.Done, prog.Total, 20), prog.Done, prog.Total, prog.Percent)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include tasks hidden by MVD mode")
	cmd.Flags().BoolVarP(&quick, "quick", "q", false, "Only quick wins (≤2 min, incomplete)")

	return cmd
}

func printTaskLine(w io.Writer, t engine.Task) {
	mark := "[ ]"
	text := t.Text
	if t.Completed {
		mark = "[x]"
		text = ui.Dim.Render(text)
	}
	meta := fmt.Sprintf("%s %dmin +%dxp", ui.CategoryIcon(t.Category), t.EstimatedMinutes, t.XPReward)
	if t.Category == engine.CategoryCalendar {
		meta = fmt.Sprintf("%s %dmin", ui.CategoryIcon(t.Category), t.EstimatedMinutes)
	}
	if t.QuickWin {
		meta += " " + ui.IconSpark
	}
	if t.Essential {
		meta += " " + ui.IconShield
	}
	if t.Recurring && t.Streak > 1 {
		meta += fmt.Sprintf(" %s%d", ui.IconStreak, t.Streak)
	}
	fmt.Fprintf(w, "%s %s %s  %s\n", ui.Muted.Render(shortID(t.ID)), mark, text, ui.Muted.Render(meta))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
