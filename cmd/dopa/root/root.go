package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/realQhimself/dopamine-app/internal/ui"
)

const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "dopa",
	Short:         "Dopamine — ADHD-friendly gamified task tracker",
	Long:          "Dopamine is a local-first task tracker built around quick dopamine hits: XP, levels, streaks, and a Minimum Viable Day mode for low-energy days.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	rootCmd.AddCommand(
		newAddCmd(),
		newDoneCmd(),
		newListCmd(),
		newRmCmd(),
		newEnergyCmd(),
		newMVDCmd(),
		newStatusCmd(),
		newBoardCmd(),
		newCalendarCmd(),
		newCoachCmd(),
		newExportCmd(),
		newImportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}
