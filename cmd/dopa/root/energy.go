package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/realQhimself/dopamine-app/internal/engine"
	"github.com/realQhimself/dopamine-app/internal/ui"
)

func newEnergyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "energy [low|medium|high]",
		Short: "Show or set today's energy level",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return errors.New("expected at most one argument")
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

			w := cmd.OutOrStdout()
			if len(args) == 0 {
				fmt.Fprintln(w, ui.LabelValue("Energy", ui.EnergyText(svc.Tasks.Energy())))
				return nil
			}

			level := engine.ParseEnergy(args[0])
			if err := svc.Tasks.SetEnergy(ctx, level); err != nil {
				return err
			}
			fmt.Fprintln(w, ui.LabelValue("Energy", ui.EnergyText(level)))
			if level == engine.EnergyLow && !svc.Tasks.MVDMode() {
				fmt.Fprintln(w, ui.Muted.Render("Low energy day? Try `dopa mvd` for a lighter task list."))
			}
			return nil
		},
	}

	return cmd
}
