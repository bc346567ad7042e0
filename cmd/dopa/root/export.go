package root

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/realQhimself/dopamine-app/internal/backup"
	"github.com/realQhimself/dopamine-app/internal/ui"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export tasks, progress, and settings to a JSON file",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("output file is required")
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

			b, err := backup.Export(ctx, svc.DocRepo(), time.Now())
			if err != nil {
				return err
			}
			if err := backup.WriteFile(b, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(fmt.Sprintf("Exported %d documents to %s.", len(b.Documents), args[0])))
			return nil
		},
	}

	return cmd
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Restore tasks, progress, and settings from a backup",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("backup file is required")
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

			b, err := backup.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := backup.Import(ctx, svc.DocRepo(), b); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Good.Render(fmt.Sprintf("Imported %d documents from %s.", len(b.Documents), args[0])))
			return nil
		},
	}

	return cmd
}
