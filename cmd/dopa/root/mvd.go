package root

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/realQhimself/dopamine-app/internal/ui"
)

func newMVDCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mvd",
		Short: "Toggle Minimum Viable Day mode (essentials only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, _, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			on, err := svc.Tasks.ToggleMVD(ctx)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if on {
				fmt.Fprintln(w, ui.Warn.Render(fmt.Sprintf("%s Minimum Viable Day ON — essentials only, ~%d min total.", ui.IconShield, svc.Tasks.MVDTimeEstimate())))
			} else {
				fmt.Fprintln(w, ui.Good.Render("Minimum Viable Day OFF — full list is back."))
			}
			return nil
		},
	}

	return cmd
}
