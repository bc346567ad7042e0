package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/realQhimself/dopamine-app/internal/engine"
	"github.com/realQhimself/dopamine-app/internal/ui"
)

func newDoneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "done <id-or-prefix>",
		Short: "Toggle a task's completion",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("task id is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, _, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			id, err := resolveTaskID(svc, args[0])
			if err != nil {
				return err
			}

			out, err := svc.ToggleTask(ctx, id)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			switch {
			case out.XPEarned > 0:
				fmt.Fprintln(w, ui.Good.Render(fmt.Sprintf("%s +%d XP", ui.IconDone, out.XPEarned)))
			case out.XPEarned < 0:
				fmt.Fprintln(w, ui.Warn.Render(fmt.Sprintf("Un-completed (%d XP)", out.XPEarned)))
			default:
				fmt.Fprintln(w, ui.Muted.Render("No change."))
			}

			for _, ev := range svc.Events.Drain() {
				switch ev.Kind {
				case engine.EventAllTasksDone:
					fmt.Fprintln(w, ui.Gold.Render(fmt.Sprintf("%s All tasks done! +%d XP bonus", ui.IconTrophy, ev.XP)))
				case engine.EventMVDComplete:
					fmt.Fprintln(w, ui.Gold.Render(fmt.Sprintf("%s Minimum Viable Day complete! +%d XP", ui.IconShield, ev.XP)))
				case engine.EventStreakMilestone:
					fmt.Fprintln(w, ui.Gold.Render(fmt.Sprintf("%s %d-day streak! +%d XP", ui.IconStreak, ev.Count, ev.XP)))
				case engine.EventLevelUp:
					fmt.Fprintln(w, ui.Gold.Render(fmt.Sprintf("%s %s You are now %s %s (level %d)!", ui.IconStar, ui.BadgeLevelUp, ev.Level.Icon, ev.Level.Title, ev.Level.Level)))
				}
			}
			return nil
		},
	}

	return cmd
}

// resolveTaskID accepts a full task id or a unique prefix; an ambiguous
// prefix is an error rather than a guess.
func resolveTaskID(svc *engine.Service, arg string) (string, error) {
	if svc.Tasks.Get(arg) != nil {
		return arg, nil
	}
	var match string
	for _, t := range svc.Tasks.All() {
		if len(arg) > 0 && len(t.ID) >= len(arg) && t.ID[:len(arg)] == arg {
			if match != "" {
				return "", fmt.Errorf("ambiguous task id prefix %q", arg)
			}
			match = t.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no task matches %q", arg)
	}
	return match, nil
}
