package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/realQhimself/dopamine-app/internal/engine"
	"github.com/realQhimself/dopamine-app/internal/ui"
)

func newAddCmd() *cobra.Command {
	var category string
	var energy string
	var minutes int
	var essential bool
	var xp int
	var recurring bool

	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("task text is required")
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

			t, err := svc.Tasks.Add(ctx, engine.AddTaskInput{
				Text:             args[0],
				Category:         engine.ParseCategory(category),
				Energy:           engine.ParseEnergy(energy),
				EstimatedMinutes: minutes,
				Essential:        essential,
				XPReward:         xp,
				Recurring:        recurring,
			})
			if err != nil {
				return err
			}

			label := fmt.Sprintf("Added %q (+%d XP on completion)", t.Text, t.XPReward)
			if t.QuickWin {
				label += " " + ui.IconSpark + " quick win"
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(ui.IconPlus+" "+label))
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "custom", "Category (routine|work|health|creative|admin|custom)")
	cmd.Flags().StringVarP(&energy, "energy", "e", "medium", "Energy needed (low|medium|high)")
	cmd.Flags().IntVarP(&minutes, "minutes", "t", 15, "Estimated minutes")
	cmd.Flags().BoolVar(&essential, "mvd", false, "Mark as essential (shown in Minimum Viable Day mode)")
	cmd.Flags().IntVar(&xp, "xp", 0, "XP reward override (0 = automatic)")
	cmd.Flags().BoolVarP(&recurring, "recurring", "r", false, "Recurring daily task")

	return cmd
}
