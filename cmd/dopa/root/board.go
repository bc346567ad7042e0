package root

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/realQhimself/dopamine-app/internal/tui"
)

func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the interactive today board",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			svc, cfg, cleanup, err := openService(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			overlay := calendarOverlay(ctx, svc, cfg)
			return tui.RunBoard(ctx, svc, overlay, cmd.OutOrStdout())
		},
	}

	return cmd
}
